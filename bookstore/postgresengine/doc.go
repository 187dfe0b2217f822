// Package postgresengine provides a PostgreSQL implementation of the bookstore.Store interface.
//
// Documents live in a table with two columns, id (uuid, generated as UUIDv7 so that ordering by id
// is insertion order) and doc (jsonb). Filters, sorts, updates, and aggregations are rendered with
// goqu into JSONB expressions, so the store behaves like a document collection for the subset of
// queries the bookstore package can describe.
//
// The store can be created from a pgx.Pool, a *sql.DB, or a *sqlx.DB:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, err := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithTableName("books"))
//	if err != nil {
//		return err
//	}
//
//	if err = store.EnsureCollection(ctx); err != nil {
//		return err
//	}
//
//	books, err := store.Find(ctx, bookstore.BuildFilter().Gt(bookstore.FieldPublishedYear, 1950).Finalize())
package postgresengine
