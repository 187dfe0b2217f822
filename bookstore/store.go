package bookstore

import (
	"context"
)

// Store is the set of operations the query runner issues against a books collection.
//
// Every operation is a single, non-transactional round-trip to the engine.
type Store interface {
	// Find returns the documents matching filter, decoded as Books.
	Find(ctx context.Context, filter Filter, options ...FindOption) (Books, error)

	// FindDocuments returns the documents matching filter, restricted by projection.
	FindDocuments(ctx context.Context, filter Filter, projection Projection, options ...FindOption) (Documents, error)

	// UpdateOne applies update to the first document matching filter.
	UpdateOne(ctx context.Context, filter Filter, update Update) (UpdateResult, error)

	// DeleteOne removes the first document matching filter and returns the number of deleted documents.
	DeleteOne(ctx context.Context, filter Filter) (int64, error)

	// Aggregate runs pipeline over the whole collection.
	Aggregate(ctx context.Context, pipeline Pipeline) (GroupRows, error)

	// CreateIndex creates the index if it does not exist yet and returns its name.
	CreateIndex(ctx context.Context, index IndexModel) (string, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Seeder loads and clears fixture data. The query runner never uses it.
type Seeder interface {
	InsertMany(ctx context.Context, books Books) error
	DeleteAll(ctx context.Context) (int64, error)
}
