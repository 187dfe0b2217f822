package mongoengine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/internal/observe"
)

const (
	engineName            = "mongo"
	defaultCollectionName = "books"
)

// Store represents a storage for book documents backed by a MongoDB collection.
type Store struct {
	client         *mongo.Client
	collection     *mongo.Collection
	collectionName string
	ownsClient     bool
	closed         atomic.Bool
	observer       observe.Observer
}

// Connect creates a client for uri, verifies the connection with a ping, and returns a Store that
// disconnects the client on Close.
func Connect(ctx context.Context, uri string, databaseName string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)

		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	s, err := NewStore(client, databaseName, opts...)
	if err != nil {
		_ = client.Disconnect(ctx)

		return nil, err
	}

	s.ownsClient = true

	return s, nil
}

// NewStore creates a new Store using an existing client with optional configuration.
// The caller keeps ownership of the client, Close does not disconnect it.
func NewStore(client *mongo.Client, databaseName string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, bookstore.ErrNilDatabaseConnection
	}

	if databaseName == "" {
		return nil, bookstore.ErrEmptyDatabaseName
	}

	s := &Store{
		client:         client,
		collectionName: defaultCollectionName,
		observer:       observe.Observer{Engine: engineName},
	}

	for _, option := range opts {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	s.collection = client.Database(databaseName).Collection(s.collectionName)

	return s, nil
}

// Find returns the matching documents decoded as books.
func (s *Store) Find(ctx context.Context, filter bookstore.Filter, findOptions ...bookstore.FindOption) (bookstore.Books, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationFind)

	cursor, errType, err := s.find(ctx, observe.OperationFind, filter, bookstore.Projection{}, findOptions...)
	if err != nil {
		return nil, op.Fail(errType, err)
	}

	books := make(bookstore.Books, 0)
	if err = cursor.All(ctx, &books); err != nil {
		return nil, op.Fail(observe.ErrorTypeDecode, errors.Join(bookstore.ErrDecodingDocumentFailed, err))
	}

	op.Succeed(len(books))

	return books, nil
}

// FindDocuments returns the matching documents restricted by the projection.
func (s *Store) FindDocuments(
	ctx context.Context,
	filter bookstore.Filter,
	projection bookstore.Projection,
	findOptions ...bookstore.FindOption,
) (bookstore.Documents, error) {

	ctx, op := s.observer.Start(ctx, observe.OperationFindDocuments)

	if err := projection.Validate(); err != nil {
		return nil, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	cursor, errType, err := s.find(ctx, observe.OperationFindDocuments, filter, projection, findOptions...)
	if err != nil {
		return nil, op.Fail(errType, err)
	}

	raw := make([]bson.M, 0)
	if err = cursor.All(ctx, &raw); err != nil {
		return nil, op.Fail(observe.ErrorTypeDecode, errors.Join(bookstore.ErrDecodingDocumentFailed, err))
	}

	docs := make(bookstore.Documents, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, documentFromBSON(doc))
	}

	op.Succeed(len(docs))

	return docs, nil
}

func (s *Store) find(
	ctx context.Context,
	action string,
	filter bookstore.Filter,
	projection bookstore.Projection,
	findOptions ...bookstore.FindOption,
) (*mongo.Cursor, string, error) {

	fo := bookstore.NewFindOptions(findOptions...)

	if err := errors.Join(filter.Validate(), fo.Validate()); err != nil {
		return nil, observe.ErrorTypeInvalidInput, err
	}

	if s.closed.Load() {
		return nil, observe.ErrorTypeClosed, bookstore.ErrStoreClosed
	}

	query := translateFilter(filter)
	opts := translateFindOptions(fo)

	if projectionDoc, ok := translateProjection(projection); ok {
		opts.SetProjection(projectionDoc)
	}

	start := time.Now()
	cursor, err := s.collection.Find(ctx, query, opts)
	s.observer.LogQuery(ctx, action, extendedJSON(query), time.Since(start))

	if err != nil {
		return nil, observe.ErrorTypeDatabase, errors.Join(bookstore.ErrQueryingFailed, err)
	}

	return cursor, "", nil
}

// UpdateOne applies a $set to the first matching document.
func (s *Store) UpdateOne(ctx context.Context, filter bookstore.Filter, update bookstore.Update) (bookstore.UpdateResult, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationUpdateOne)

	if err := errors.Join(filter.Validate(), update.Validate()); err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	query := translateFilter(filter)
	updateDoc := translateUpdate(update)

	start := time.Now()
	res, err := s.collection.UpdateOne(ctx, query, updateDoc)
	s.observer.LogQuery(ctx, observe.OperationUpdateOne, extendedJSON(bson.D{{Key: "filter", Value: query}, {Key: "update", Value: updateDoc}}), time.Since(start))

	if err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrUpdatingFailed, err))
	}

	result := bookstore.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}
	op.Succeed(int(result.ModifiedCount))

	return result, nil
}

// DeleteOne removes the first matching document.
func (s *Store) DeleteOne(ctx context.Context, filter bookstore.Filter) (int64, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationDeleteOne)

	if err := filter.Validate(); err != nil {
		return 0, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return 0, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	query := translateFilter(filter)

	start := time.Now()
	res, err := s.collection.DeleteOne(ctx, query)
	s.observer.LogQuery(ctx, observe.OperationDeleteOne, extendedJSON(query), time.Since(start))

	if err != nil {
		return 0, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrDeletingFailed, err))
	}

	op.Succeed(int(res.DeletedCount))

	return res.DeletedCount, nil
}

// Aggregate runs the pipeline over the whole collection.
func (s *Store) Aggregate(ctx context.Context, pipeline bookstore.Pipeline) (bookstore.GroupRows, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationAggregate)

	if err := pipeline.Validate(); err != nil {
		return nil, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return nil, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	stages := translatePipeline(pipeline)

	start := time.Now()
	cursor, err := s.collection.Aggregate(ctx, stages)
	s.observer.LogQuery(ctx, observe.OperationAggregate, extendedJSON(bson.D{{Key: "pipeline", Value: stages}}), time.Since(start))

	if err != nil {
		return nil, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrAggregatingFailed, err))
	}

	raw := make([]bson.M, 0)
	if err = cursor.All(ctx, &raw); err != nil {
		return nil, op.Fail(observe.ErrorTypeDecode, errors.Join(bookstore.ErrDecodingDocumentFailed, err))
	}

	rows := make(bookstore.GroupRows, 0, len(raw))
	for _, doc := range raw {
		rows = append(rows, groupRowFromBSON(doc, pipeline))
	}

	op.Succeed(len(rows))

	return rows, nil
}

// CreateIndex creates the index, MongoDB treats an identical existing index as success.
func (s *Store) CreateIndex(ctx context.Context, index bookstore.IndexModel) (string, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationCreateIndex)

	if err := index.Validate(); err != nil {
		return "", op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return "", op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	model := translateIndex(index)

	start := time.Now()
	name, err := s.collection.Indexes().CreateOne(ctx, model)
	s.observer.LogQuery(ctx, observe.OperationCreateIndex, extendedJSON(model.Keys), time.Since(start))

	if err != nil {
		return "", op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrCreatingIndexFailed, err))
	}

	op.Succeed(-1, "index", name)

	return name, nil
}

// InsertMany inserts the books, MongoDB assigns their _id values.
func (s *Store) InsertMany(ctx context.Context, books bookstore.Books) error {
	ctx, op := s.observer.Start(ctx, observe.OperationInsertMany)

	if s.closed.Load() {
		return op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	if len(books) == 0 {
		op.Succeed(0)
		return nil
	}

	docs := make([]any, 0, len(books))
	for _, book := range books {
		docs = append(docs, book)
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrInsertingFailed, err))
	}

	op.Succeed(len(books))

	return nil
}

// DeleteAll removes every document of the collection.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationDeleteAll)

	if s.closed.Load() {
		return 0, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	res, err := s.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrDeletingFailed, err))
	}

	op.Succeed(int(res.DeletedCount))

	return res.DeletedCount, nil
}

// Close disconnects the client if the Store created it via Connect. Closing twice is a no-op.
func (s *Store) Close(ctx context.Context) error {
	ctx, op := s.observer.Start(ctx, observe.OperationClose)

	if !s.closed.CompareAndSwap(false, true) {
		op.Succeed(-1)
		return nil
	}

	if s.ownsClient {
		if err := s.client.Disconnect(ctx); err != nil {
			return op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrClosingFailed, err))
		}
	}

	op.Succeed(-1)

	return nil
}

// CollectionName returns the name of the collection the Store works on.
func (s *Store) CollectionName() string {
	return s.collectionName
}

func extendedJSON(doc any) string {
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "<unprintable query>"
	}

	return string(b)
}

// Ensure Store implements bookstore.Store and bookstore.Seeder.
var _ bookstore.Store = (*Store)(nil)
var _ bookstore.Seeder = (*Store)(nil)
