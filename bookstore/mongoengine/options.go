package mongoengine

import (
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithCollectionName sets the collection name for the Store.
func WithCollectionName(collectionName string) Option {
	return func(s *Store) error {
		if collectionName == "" {
			return bookstore.ErrEmptyCollectionName
		}

		s.collectionName = collectionName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: BSON queries as extended JSON with execution timing (development use)
// Info level: Operation results with document counts and durations (production-safe)
// Warn level: Non-critical issues like a failed disconnect
// Error level: Failures that cause operation failures.
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
