package runner

import (
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

// ErrNilOutput is returned by WithOutput for a nil writer.
var ErrNilOutput = errors.New("nil output writer supplied")

// Option defines a functional option for configuring Runner.
type Option func(*Runner) error

// WithOutput sets the writer the run prints to, os.Stdout by default.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) error {
		if out == nil {
			return ErrNilOutput
		}

		r.out = out

		return nil
	}
}

// WithRunID replaces the generated UUIDv7 run ID.
func WithRunID(runID uuid.UUID) Option {
	return func(r *Runner) error {
		r.runID = runID
		return nil
	}
}

// WithLogger sets the logger for the Runner.
func WithLogger(logger bookstore.Logger) Option {
	return func(r *Runner) error {
		r.observer.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Runner.
func WithContextualLogger(logger bookstore.ContextualLogger) Option {
	return func(r *Runner) error {
		r.observer.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Runner.
func WithMetrics(collector bookstore.MetricsCollector) Option {
	return func(r *Runner) error {
		r.observer.metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Runner.
func WithTracing(collector bookstore.TracingCollector) Option {
	return func(r *Runner) error {
		r.observer.tracing = collector
		return nil
	}
}
