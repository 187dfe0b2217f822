package runner

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

const (
	// StepDurationMetric tracks the duration of each query step.
	StepDurationMetric = "runner_step_duration_seconds"

	// StepCallsMetric counts executed query steps by status.
	StepCallsMetric = "runner_step_calls_total"

	// RunsMetric counts runs by status.
	RunsMetric = "runner_runs_total"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"

	LogMsgRunStarted     = "query run started"
	LogMsgRunCompleted   = "query run completed"
	LogMsgRunFailed      = "query run failed"
	LogMsgStepCompleted  = "query step completed"
	LogMsgStepFailed     = "query step failed"
	LogMsgStoreNotClosed = "closing the store failed"

	LogAttrRunID      = "run_id"
	LogAttrStep       = "step"
	LogAttrStepName   = "step_name"
	LogAttrStatus     = "status"
	LogAttrDurationMS = "duration_ms"
	LogAttrError      = "error"

	SpanNameRun  = "runner.run"
	SpanNameStep = "runner.step"
)

// observer bundles the optional collectors of a Runner.
type observer struct {
	logger           bookstore.Logger
	contextualLogger bookstore.ContextualLogger
	metrics          bookstore.MetricsCollector
	tracing          bookstore.TracingCollector
}

func (o observer) info(ctx context.Context, msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (o observer) error(ctx context.Context, msg string, args ...any) {
	if o.logger != nil {
		o.logger.Error(msg, args...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.ErrorContext(ctx, msg, args...)
	}
}

func (o observer) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, bookstore.SpanContext) {
	if o.tracing == nil {
		return ctx, nil
	}

	return o.tracing.StartSpan(ctx, name, attrs)
}

func (o observer) finishSpan(span bookstore.SpanContext, status string, duration time.Duration, err error) {
	if o.tracing == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	o.tracing.FinishSpan(span, status, attrs)
}

func (o observer) recordStep(ctx context.Context, step Step, status string, duration time.Duration) {
	if o.metrics == nil {
		return
	}

	labels := map[string]string{
		LogAttrStep:     strconv.Itoa(step.Number),
		LogAttrStepName: step.Name,
		LogAttrStatus:   status,
	}

	if contextual, ok := o.metrics.(bookstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, StepDurationMetric, duration, labels)
		contextual.IncrementCounterContext(ctx, StepCallsMetric, labels)

		return
	}

	o.metrics.RecordDuration(StepDurationMetric, duration, labels)
	o.metrics.IncrementCounter(StepCallsMetric, labels)
}

func (o observer) recordRun(ctx context.Context, status string) {
	if o.metrics == nil {
		return
	}

	labels := map[string]string{LogAttrStatus: status}

	if contextual, ok := o.metrics.(bookstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, RunsMetric, labels)
		return
	}

	o.metrics.IncrementCounter(RunsMetric, labels)
}

// statusOf classifies err for metrics and spans.
func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	default:
		return StatusError
	}
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*100) / 100
}
