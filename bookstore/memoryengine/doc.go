// Package memoryengine provides an in-process implementation of the bookstore.Store interface.
//
// It keeps documents in insertion order and evaluates filters, sorts, projections, updates,
// and pipelines directly in Go, following MongoDB's semantics for the subset the description
// layer supports. It is meant for tests and offline demo runs, not as a database.
//
// Usage example:
//
//	store, _ := memoryengine.NewStore(memoryengine.WithLogger(logger))
//	_ = store.InsertMany(ctx, fixtures.Books())
//
//	books, _ := store.Find(ctx, bookstore.BuildFilter().Eq(bookstore.FieldGenre, "Fiction").Finalize())
package memoryengine
