package memoryengine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/internal/observe"
)

const engineName = "memory"

// Store is an in-memory bookstore.Store and bookstore.Seeder.
type Store struct {
	mu       sync.RWMutex
	docs     []bookstore.Document
	indexes  []bookstore.IndexModel
	closed   bool
	observer observe.Observer
}

// NewStore creates an empty Store with optional configuration.
func NewStore(options ...Option) (*Store, error) {
	s := &Store{
		docs:     make([]bookstore.Document, 0),
		indexes:  make([]bookstore.IndexModel, 0),
		observer: observe.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Find returns the matching documents decoded as books.
func (s *Store) Find(ctx context.Context, filter bookstore.Filter, options ...bookstore.FindOption) (bookstore.Books, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationFind)

	docs, errType, err := s.find(ctx, filter, options...)
	if err != nil {
		return nil, op.Fail(errType, err)
	}

	books := make(bookstore.Books, 0, len(docs))
	for _, doc := range docs {
		books = append(books, bookFromDocument(doc))
	}

	op.Succeed(len(books))

	return books, nil
}

// FindDocuments returns the matching documents restricted by the projection.
func (s *Store) FindDocuments(
	ctx context.Context,
	filter bookstore.Filter,
	projection bookstore.Projection,
	options ...bookstore.FindOption,
) (bookstore.Documents, error) {

	ctx, op := s.observer.Start(ctx, observe.OperationFindDocuments)

	if err := projection.Validate(); err != nil {
		return nil, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	docs, errType, err := s.find(ctx, filter, options...)
	if err != nil {
		return nil, op.Fail(errType, err)
	}

	projected := make(bookstore.Documents, 0, len(docs))
	for _, doc := range docs {
		projected = append(projected, projection.Apply(doc))
	}

	op.Succeed(len(projected))

	return projected, nil
}

func (s *Store) find(ctx context.Context, filter bookstore.Filter, options ...bookstore.FindOption) ([]bookstore.Document, string, error) {
	findOptions := bookstore.NewFindOptions(options...)

	if err := errors.Join(filter.Validate(), findOptions.Validate()); err != nil {
		return nil, observe.ErrorTypeInvalidInput, err
	}

	if err := ctx.Err(); err != nil {
		return nil, observe.ErrorTypeDatabase, errors.Join(bookstore.ErrQueryingFailed, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, observe.ErrorTypeClosed, bookstore.ErrStoreClosed
	}

	matched := make([]bookstore.Document, 0)
	for _, doc := range s.docs {
		if matches(doc, filter) {
			matched = append(matched, copyDocument(doc))
		}
	}

	if len(findOptions.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessBySort(matched[i], matched[j], findOptions.Sort)
		})
	}

	return window(matched, findOptions.Skip, findOptions.Limit), "", nil
}

// UpdateOne sets the fields of the first matching document in insertion order.
func (s *Store) UpdateOne(ctx context.Context, filter bookstore.Filter, update bookstore.Update) (bookstore.UpdateResult, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationUpdateOne)

	if err := errors.Join(filter.Validate(), update.Validate()); err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if err := ctx.Err(); err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrUpdatingFailed, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	result := bookstore.UpdateResult{}

	for _, doc := range s.docs {
		if !matches(doc, filter) {
			continue
		}

		result.MatchedCount = 1

		for _, assignment := range update.Assignments() {
			current, exists := doc[assignment.Field]
			if !exists || !sameValue(current, assignment.Value) {
				doc[assignment.Field] = assignment.Value
				result.ModifiedCount = 1
			}
		}

		break
	}

	op.Succeed(int(result.ModifiedCount))

	return result, nil
}

// DeleteOne removes the first matching document in insertion order.
func (s *Store) DeleteOne(ctx context.Context, filter bookstore.Filter) (int64, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationDeleteOne)

	if err := filter.Validate(); err != nil {
		return 0, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if err := ctx.Err(); err != nil {
		return 0, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrDeletingFailed, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	deleted := int64(0)

	for i, doc := range s.docs {
		if matches(doc, filter) {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			deleted = 1

			break
		}
	}

	op.Succeed(int(deleted))

	return deleted, nil
}

// Aggregate groups all documents as described by the pipeline.
func (s *Store) Aggregate(ctx context.Context, pipeline bookstore.Pipeline) (bookstore.GroupRows, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationAggregate)

	if err := pipeline.Validate(); err != nil {
		return nil, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrAggregatingFailed, err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	rows, err := aggregate(s.docs, pipeline)
	if err != nil {
		return nil, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrAggregatingFailed, err))
	}

	op.Succeed(len(rows))

	return rows, nil
}

// CreateIndex records the index definition once; creating an identical index again is a no-op.
func (s *Store) CreateIndex(ctx context.Context, index bookstore.IndexModel) (string, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationCreateIndex)

	if err := index.Validate(); err != nil {
		return "", op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if err := ctx.Err(); err != nil {
		return "", op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrCreatingIndexFailed, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	name := index.Name()

	exists := false
	for _, existing := range s.indexes {
		if existing.Name() == name {
			exists = true
			break
		}
	}

	if !exists {
		s.indexes = append(s.indexes, index)
	}

	op.Succeed(-1, "index", name)

	return name, nil
}

// Indexes returns the names of the created indexes in creation order.
func (s *Store) Indexes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.indexes))
	for _, index := range s.indexes {
		names = append(names, index.Name())
	}

	return names
}

// InsertMany appends the books, each with a new UUIDv7 _id.
func (s *Store) InsertMany(ctx context.Context, books bookstore.Books) error {
	ctx, op := s.observer.Start(ctx, observe.OperationInsertMany)

	if err := ctx.Err(); err != nil {
		return op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrInsertingFailed, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	if err := s.insert(books); err != nil {
		return op.Fail(observe.ErrorTypeDatabase, err)
	}

	op.Succeed(len(books))

	return nil
}

// insert expects the caller to hold the write lock (or to be the constructor).
func (s *Store) insert(books bookstore.Books) error {
	for _, book := range books {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Join(bookstore.ErrInsertingFailed, err)
		}

		s.docs = append(s.docs, documentFromBook(id.String(), book))
	}

	return nil
}

// DeleteAll removes every document.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	_, op := s.observer.Start(ctx, observe.OperationDeleteAll)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	deleted := int64(len(s.docs))
	s.docs = make([]bookstore.Document, 0)

	op.Succeed(int(deleted))

	return deleted, nil
}

// Close marks the Store as closed. Closing twice is a no-op.
func (s *Store) Close(ctx context.Context) error {
	_, op := s.observer.Start(ctx, observe.OperationClose)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	op.Succeed(-1)

	return nil
}

func window(docs []bookstore.Document, skip, limit int64) []bookstore.Document {
	if skip >= int64(len(docs)) {
		return []bookstore.Document{}
	}

	docs = docs[skip:]

	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}

	return docs
}

// Ensure Store implements bookstore.Store and bookstore.Seeder.
var _ bookstore.Store = (*Store)(nil)
var _ bookstore.Seeder = (*Store)(nil)
