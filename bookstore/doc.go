// Package bookstore provides the engine-neutral description layer for querying a
// schema-less collection of books.
//
// This package defines the types that describe what to ask a document store for,
// without knowing how a concrete store answers it. Engine packages translate these
// descriptions into their own query language (MongoDB, PostgreSQL JSONB, in-memory).
//
// The description layer supports:
//   - Filters: AND-ed field conditions (eq, gt, gte, lt, lte)
//   - Find options: sort, skip, limit, pagination
//   - Projections: field inclusion with optional _id exclusion
//   - Updates: $set-style field assignments
//   - Pipelines: one group stage with one accumulator, optional sort and limit
//   - Index models: single-field and compound indexes
//
// Key types:
//   - Book: The document shape used by the examples
//   - Filter: Criteria for matching documents
//   - Pipeline: A group/sort/limit aggregation
//   - Store: The operations every engine implements
//
// Common usage pattern:
//
//	filter := bookstore.BuildFilter().
//		Eq(bookstore.FieldInStock, true).
//		Gt(bookstore.FieldPublishedYear, 1980).
//		Finalize()
//
//	books, err := store.Find(ctx, filter, bookstore.SortBy(bookstore.FieldPrice, bookstore.Ascending), bookstore.Limit(5))
//	if err != nil {
//		// handle error
//	}
//
//	rows, err := store.Aggregate(ctx, bookstore.BuildPipeline().
//		GroupByBucket(bookstore.FieldPublishedYear, 10).
//		Count("count").
//		SortByKey(bookstore.Ascending).
//		Finalize())
package bookstore
