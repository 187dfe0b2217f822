package observe

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

const (
	logMsgQueryExecuted = "executed query for: "
	logMsgOperation     = "bookstore operation: "
	logMsgFailed        = " failed"
	logAttrError        = "error"
	logAttrErrorType    = "error_type"
	logAttrQuery        = "query"
	logAttrDurationMS   = "duration_ms"
	logAttrEngine       = "engine"

	MetricOperationDuration = "bookstore_operation_duration_seconds"
	MetricOperationsTotal   = "bookstore_operations_total"
	MetricDatabaseErrors    = "bookstore_database_errors_total"
	MetricDocumentsReturned = "bookstore_documents_returned"

	SpanNamePrefix    = "bookstore."
	SpanAttrOperation = "operation"
	SpanAttrEngine    = "engine"
	SpanAttrErrorType = "error_type"
	SpanAttrDuration  = "duration_ms"
	SpanAttrCount     = "document_count"

	labelStatus = "status"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Observer bundles the optional observability collectors of one store engine.
type Observer struct {
	Engine           string
	Logger           bookstore.Logger
	ContextualLogger bookstore.ContextualLogger
	Metrics          bookstore.MetricsCollector
	Tracing          bookstore.TracingCollector
}

// Operation tracks one running store operation.
type Operation struct {
	observer *Observer
	ctx      context.Context
	name     string
	span     bookstore.SpanContext
	start    time.Time
}

// Start begins an operation, starting a tracing span if tracing is configured.
// The returned context carries the span and should be used for the database call.
func (o *Observer) Start(ctx context.Context, operation string) (context.Context, *Operation) {
	var span bookstore.SpanContext

	if o.Tracing != nil {
		ctx, span = o.Tracing.StartSpan(ctx, SpanNamePrefix+operation, map[string]string{
			SpanAttrOperation: operation,
			SpanAttrEngine:    o.Engine,
		})
	}

	return ctx, &Operation{
		observer: o,
		ctx:      ctx,
		name:     operation,
		span:     span,
		start:    time.Now(),
	}
}

// LogQuery logs a query in the engine's own language at debug level.
func (o *Observer) LogQuery(ctx context.Context, action string, query string, duration time.Duration) {
	args := []any{logAttrEngine, o.Engine, logAttrDurationMS, ToMilliseconds(duration), logAttrQuery, query}

	if o.Logger != nil {
		o.Logger.Debug(logMsgQueryExecuted+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, logMsgQueryExecuted+action, args...)
	}
}

// Warn logs a non-critical problem, e.g. a failed cleanup.
func (o *Observer) Warn(ctx context.Context, message string, err error) {
	if o.Logger != nil {
		o.Logger.Warn(message, logAttrEngine, o.Engine, logAttrError, err.Error())
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, message, logAttrEngine, o.Engine, logAttrError, err.Error())
	}
}

// Succeed completes the operation. A non-negative count is recorded as the number of documents involved.
func (op *Operation) Succeed(count int, args ...any) {
	duration := time.Since(op.start)
	o := op.observer

	logArgs := []any{logAttrEngine, o.Engine, logAttrDurationMS, ToMilliseconds(duration)}
	logArgs = append(logArgs, args...)

	if o.Logger != nil {
		o.Logger.Info(logMsgOperation+op.name, logArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(op.ctx, logMsgOperation+op.name, logArgs...)
	}

	op.recordDuration(duration, StatusSuccess)
	op.incrementCounter(MetricOperationsTotal, map[string]string{SpanAttrOperation: op.name, labelStatus: StatusSuccess})

	if count >= 0 {
		op.recordValue(MetricDocumentsReturned, float64(count), StatusSuccess)
	}

	if op.span != nil {
		op.span.SetStatus(StatusSuccess)
		op.span.AddAttribute(SpanAttrDuration, fmt.Sprintf("%.2f", ToMilliseconds(duration)))

		attrs := map[string]string{}
		if count >= 0 {
			attrs[SpanAttrCount] = strconv.Itoa(count)
		}

		o.Tracing.FinishSpan(op.span, StatusSuccess, attrs)
	}
}

// Fail completes the operation with an error and returns err unchanged, so it can be used in a return statement.
func (op *Operation) Fail(errorType string, err error) error {
	duration := time.Since(op.start)
	o := op.observer

	logArgs := []any{logAttrEngine, o.Engine, logAttrErrorType, errorType, logAttrError, err.Error()}

	if o.Logger != nil {
		o.Logger.Error(logMsgOperation+op.name+logMsgFailed, logArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(op.ctx, logMsgOperation+op.name+logMsgFailed, logArgs...)
	}

	op.recordDuration(duration, StatusError)
	op.incrementCounter(MetricOperationsTotal, map[string]string{SpanAttrOperation: op.name, labelStatus: StatusError})
	op.incrementCounter(MetricDatabaseErrors, map[string]string{
		SpanAttrOperation: op.name,
		labelStatus:       StatusError,
		SpanAttrErrorType: errorType,
	})

	if op.span != nil {
		op.span.SetStatus(StatusError)
		op.span.AddAttribute(SpanAttrErrorType, errorType)
		o.Tracing.FinishSpan(op.span, StatusError, map[string]string{SpanAttrErrorType: errorType})
	}

	return err
}

func (op *Operation) recordDuration(duration time.Duration, status string) {
	metrics := op.observer.Metrics
	if metrics == nil {
		return
	}

	labels := map[string]string{SpanAttrOperation: op.name, labelStatus: status, SpanAttrEngine: op.observer.Engine}

	if contextual, ok := metrics.(bookstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(op.ctx, MetricOperationDuration, duration, labels)
		return
	}

	metrics.RecordDuration(MetricOperationDuration, duration, labels)
}

func (op *Operation) incrementCounter(metric string, labels map[string]string) {
	metrics := op.observer.Metrics
	if metrics == nil {
		return
	}

	labels[SpanAttrEngine] = op.observer.Engine

	if contextual, ok := metrics.(bookstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(op.ctx, metric, labels)
		return
	}

	metrics.IncrementCounter(metric, labels)
}

func (op *Operation) recordValue(metric string, value float64, status string) {
	metrics := op.observer.Metrics
	if metrics == nil {
		return
	}

	labels := map[string]string{SpanAttrOperation: op.name, labelStatus: status, SpanAttrEngine: op.observer.Engine}

	if contextual, ok := metrics.(bookstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(op.ctx, metric, value, labels)
		return
	}

	metrics.RecordValue(metric, value, labels)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
