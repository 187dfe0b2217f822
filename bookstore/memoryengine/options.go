package memoryengine

import (
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
func WithLogger(logger bookstore.Logger) Option {
	return func(s *Store) error {
		s.observer.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
func WithContextualLogger(logger bookstore.ContextualLogger) Option {
	return func(s *Store) error {
		s.observer.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector bookstore.MetricsCollector) Option {
	return func(s *Store) error {
		s.observer.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector bookstore.TracingCollector) Option {
	return func(s *Store) error {
		s.observer.Tracing = collector
		return nil
	}
}

// WithBooks seeds the Store with books at construction time.
func WithBooks(books bookstore.Books) Option {
	return func(s *Store) error {
		return s.insert(books)
	}
}
