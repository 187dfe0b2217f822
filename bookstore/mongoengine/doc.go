// Package mongoengine provides a MongoDB implementation of the bookstore.Store interface.
//
// The Store translates the engine-neutral Filter, FindOption(s), Projection, Update, Pipeline,
// and IndexModel values into BSON documents and runs them against one collection
// (default "books") through the official go.mongodb.org/mongo-driver.
//
// Usage example:
//
//	store, err := mongoengine.Connect(ctx, "mongodb://localhost:27017", "plp_bookstore",
//		mongoengine.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer store.Close(ctx)
//
//	books, err := store.Find(ctx, bookstore.BuildFilter().Eq(bookstore.FieldGenre, "Fiction").Finalize())
package mongoengine
