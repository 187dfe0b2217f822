package observe_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/internal/observe"
	. "github.com/AntonStoeckl/bookstore-queries-go/testutil/helper" //nolint:revive
)

func Test_Observer_Succeed_ReportsToAllCollectors(t *testing.T) {
	// arrange
	logSpy := NewLogHandlerSpy(false)
	metricsSpy := NewMetricsCollectorSpy()
	tracingSpy := NewTracingCollectorSpy()

	observer := observe.Observer{
		Engine:  "memory",
		Logger:  NewSpyLogger(logSpy),
		Metrics: metricsSpy,
		Tracing: tracingSpy,
	}

	// act
	_, op := observer.Start(context.Background(), observe.OperationFind)
	op.Succeed(4)

	// assert
	assert.True(t,
		logSpy.HasLogWithMessage(slog.LevelInfo, "bookstore operation: find").
			WithDurationMS().
			WithAttr("engine", "memory").
			Assert(),
	)

	labels := map[string]string{"operation": "find", "status": "success", "engine": "memory"}
	assert.True(t, metricsSpy.HasDurationRecordFor(observe.MetricOperationDuration, labels))
	assert.True(t, metricsSpy.HasCounterRecordFor(observe.MetricOperationsTotal, labels))
	assert.True(t, metricsSpy.HasValueRecordFor(observe.MetricDocumentsReturned, 4, labels))

	span, found := tracingSpy.FindSpan("bookstore.find")
	require.True(t, found)
	assert.Equal(t, map[string]string{"operation": "find", "engine": "memory"}, span.StartAttributes)
	assert.True(t, span.Finished)
	assert.Equal(t, observe.StatusSuccess, span.Status)
	assert.Equal(t, "4", span.EndAttributes["document_count"])
}

func Test_Observer_Succeed_WithoutCount_RecordsNoDocumentValue(t *testing.T) {
	metricsSpy := NewMetricsCollectorSpy()
	observer := observe.Observer{Engine: "memory", Metrics: metricsSpy}

	_, op := observer.Start(context.Background(), observe.OperationClose)
	op.Succeed(-1)

	assert.Empty(t, metricsSpy.GetValueRecords())
	assert.Len(t, metricsSpy.GetCounterRecords(), 1)
}

func Test_Observer_Fail_ReportsErrorAndReturnsIt(t *testing.T) {
	// arrange
	logSpy := NewLogHandlerSpy(false)
	metricsSpy := NewMetricsCollectorSpy()
	tracingSpy := NewTracingCollectorSpy()
	cause := errors.New("connection reset")

	observer := observe.Observer{
		Engine:  "postgres",
		Logger:  NewSpyLogger(logSpy),
		Metrics: metricsSpy,
		Tracing: tracingSpy,
	}

	// act
	_, op := observer.Start(context.Background(), observe.OperationAggregate)
	err := op.Fail(observe.ErrorTypeDatabase, cause)

	// assert
	assert.Same(t, cause, err)
	assert.True(t,
		logSpy.HasLogWithMessage(slog.LevelError, "bookstore operation: aggregate failed").
			WithAttr("error_type", observe.ErrorTypeDatabase).
			WithAttr("error", "connection reset").
			Assert(),
	)
	assert.True(t, metricsSpy.HasCounterRecordFor(observe.MetricDatabaseErrors, map[string]string{
		"operation":  "aggregate",
		"status":     "error",
		"error_type": observe.ErrorTypeDatabase,
		"engine":     "postgres",
	}))

	span, found := tracingSpy.FindSpan("bookstore.aggregate")
	require.True(t, found)
	assert.Equal(t, observe.StatusError, span.Status)
	assert.Equal(t, observe.ErrorTypeDatabase, span.SpanContext.GetAttributes()["error_type"])
}

func Test_Observer_LogQuery_LogsAtDebugLevel(t *testing.T) {
	logSpy := NewLogHandlerSpy(false)
	observer := observe.Observer{Engine: "mongo", ContextualLogger: NewSpyLogger(logSpy)}

	observer.LogQuery(context.Background(), observe.OperationFind, `{"genre":"Fiction"}`, 2*time.Millisecond)

	assert.True(t,
		logSpy.HasLogWithMessage(slog.LevelDebug, "executed query for: find").
			WithAttr("query", `{"genre":"Fiction"}`).
			WithDurationMS().
			Assert(),
	)
}

func Test_Observer_WithoutCollectors_DoesNothing(t *testing.T) {
	observer := observe.Observer{Engine: "memory"}

	assert.NotPanics(t, func() {
		ctx, op := observer.Start(context.Background(), observe.OperationFind)
		observer.LogQuery(ctx, observe.OperationFind, "q", time.Millisecond)
		observer.Warn(ctx, "cleanup failed", errors.New("x"))
		op.Succeed(1)
		_ = op.Fail(observe.ErrorTypeDatabase, errors.New("x"))
	})
}

func Test_ToMilliseconds(t *testing.T) {
	assert.Equal(t, 1.5, observe.ToMilliseconds(1500*time.Microsecond))
	assert.Equal(t, 0.001, observe.ToMilliseconds(time.Microsecond))
}
