package oteladapters_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/oteladapters"
	. "github.com/AntonStoeckl/bookstore-queries-go/testutil/helper" //nolint:revive
)

type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func recordAttributes(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}

func Test_SlogBridgeLoggerWithHandler_WritesAllLevels(t *testing.T) {
	spy := NewLogHandlerSpy(false)
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(spy)
	ctx := context.Background()

	logger.DebugContext(ctx, "executed query for: find", "query", "{}")
	logger.InfoContext(ctx, "bookstore operation: find", "duration_ms", 1.5)
	logger.WarnContext(ctx, "failed to close database rows", "error", "boom")
	logger.ErrorContext(ctx, "bookstore operation: find failed", "error_type", "database_error")

	assert.Equal(t, 4, spy.GetRecordCount())
	assert.True(t, spy.HasDebugLog("executed query for: find"))
	assert.True(t, spy.HasLogWithMessage(slog.LevelInfo, "bookstore operation: find").WithDurationMS().Assert())
	assert.True(t, spy.HasLogWithMessage(slog.LevelWarn, "failed to close database rows").WithAttr("error", "boom").Assert())
	assert.True(t, spy.HasErrorLog("bookstore operation: find failed"))
}

func Test_NewSlogBridgeLogger_DoesNotPanic_WithoutProvider(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("bookstore-test")

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "bookstore operation: find")
	})
}

func Test_OTelLogger_EmitsRecords(t *testing.T) {
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "bookstore operation: find",
		"engine", "memory",
		"duration_ms", 2.5,
		"count", int64(12),
		"in_stock", true,
		"dangling",
	)
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message", 42, "non-string key is skipped")

	require.Len(t, recorder.records, 4)

	severities := make([]log.Severity, 0, 4)
	for _, record := range recorder.records {
		severities = append(severities, record.Severity())
	}

	assert.Equal(t, []log.Severity{log.SeverityDebug, log.SeverityInfo, log.SeverityWarn, log.SeverityError}, severities)

	info := recorder.records[1]
	assert.Equal(t, "bookstore operation: find", info.Body().AsString())
	assert.Equal(t, log.SeverityInfo.String(), info.SeverityText())

	attrs := recordAttributes(info)
	assert.Len(t, attrs, 4)
	assert.Equal(t, "memory", attrs["engine"].AsString())
	assert.InDelta(t, 2.5, attrs["duration_ms"].AsFloat64(), 0)
	assert.Equal(t, int64(12), attrs["count"].AsInt64())
	assert.True(t, attrs["in_stock"].AsBool())

	assert.Empty(t, recordAttributes(recorder.records[3]))
}
