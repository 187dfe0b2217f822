package helper

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

// StoreSpy wraps a bookstore.Store, records the operations called on it, and can inject failures.
type StoreSpy struct {
	delegate   bookstore.Store
	calls      []string
	closeCalls int
	failOn     map[string]error
	mu         sync.Mutex
}

// NewStoreSpy creates a StoreSpy delegating to store.
func NewStoreSpy(store bookstore.Store) *StoreSpy {
	return &StoreSpy{
		delegate: store,
		calls:    make([]string, 0),
		failOn:   make(map[string]error),
	}
}

// FailOn makes every call of the named operation ("find", "find_documents", "update_one", "delete_one",
// "aggregate", "create_index", "close") return err without reaching the delegate.
func (s *StoreSpy) FailOn(operation string, err error) *StoreSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[operation] = err

	return s
}

// Calls returns the names of the operations called so far, in order.
func (s *StoreSpy) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]string, len(s.calls))
	copy(calls, s.calls)

	return calls
}

// CloseCalls returns how often Close was called.
func (s *StoreSpy) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeCalls
}

func (s *StoreSpy) record(operation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, operation)
	if operation == "close" {
		s.closeCalls++
	}

	return s.failOn[operation]
}

// Find implements bookstore.Store.
func (s *StoreSpy) Find(ctx context.Context, filter bookstore.Filter, options ...bookstore.FindOption) (bookstore.Books, error) {
	if err := s.record("find"); err != nil {
		return nil, err
	}

	return s.delegate.Find(ctx, filter, options...)
}

// FindDocuments implements bookstore.Store.
func (s *StoreSpy) FindDocuments(
	ctx context.Context,
	filter bookstore.Filter,
	projection bookstore.Projection,
	options ...bookstore.FindOption,
) (bookstore.Documents, error) {

	if err := s.record("find_documents"); err != nil {
		return nil, err
	}

	return s.delegate.FindDocuments(ctx, filter, projection, options...)
}

// UpdateOne implements bookstore.Store.
func (s *StoreSpy) UpdateOne(ctx context.Context, filter bookstore.Filter, update bookstore.Update) (bookstore.UpdateResult, error) {
	if err := s.record("update_one"); err != nil {
		return bookstore.UpdateResult{}, err
	}

	return s.delegate.UpdateOne(ctx, filter, update)
}

// DeleteOne implements bookstore.Store.
func (s *StoreSpy) DeleteOne(ctx context.Context, filter bookstore.Filter) (int64, error) {
	if err := s.record("delete_one"); err != nil {
		return 0, err
	}

	return s.delegate.DeleteOne(ctx, filter)
}

// Aggregate implements bookstore.Store.
func (s *StoreSpy) Aggregate(ctx context.Context, pipeline bookstore.Pipeline) (bookstore.GroupRows, error) {
	if err := s.record("aggregate"); err != nil {
		return nil, err
	}

	return s.delegate.Aggregate(ctx, pipeline)
}

// CreateIndex implements bookstore.Store.
func (s *StoreSpy) CreateIndex(ctx context.Context, index bookstore.IndexModel) (string, error) {
	if err := s.record("create_index"); err != nil {
		return "", err
	}

	return s.delegate.CreateIndex(ctx, index)
}

// Close implements bookstore.Store.
func (s *StoreSpy) Close(ctx context.Context) error {
	if err := s.record("close"); err != nil {
		return err
	}

	return s.delegate.Close(ctx)
}

// Ensure StoreSpy implements bookstore.Store.
var _ bookstore.Store = (*StoreSpy)(nil)
