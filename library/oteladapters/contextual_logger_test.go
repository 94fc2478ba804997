package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/schoollibrary/circulation/library/oteladapters"
)

func Test_SlogBridgeLogger_WithHandler_WritesThroughTheHandler(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// act
	logger.WarnContext(context.Background(), "counter drift repaired", "book_id", "b-1")

	// assert
	assert.Contains(t, buf.String(), `"msg":"counter drift repaired"`)
	assert.Contains(t, buf.String(), `"book_id":"b-1"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func Test_SlogBridgeLogger_OnGlobalProvider_DoesNotPanic(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("circulation-test")
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug message", "key", "value")
		logger.InfoContext(ctx, "info message", "key", "value")
		logger.WarnContext(ctx, "warn message", "key", "value")
		logger.ErrorContext(ctx, "error message", "key", "value")
	})
}

func Test_OTelLogger_EmitsRecordsWithAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{Logger: noop.NewLoggerProvider().Logger("test")}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.ErrorContext(context.Background(), "database query failed",
		"operation", "create_loan",
		"attempt", 2,
		"error", errors.New("connection reset"),
		"dangling",
	)

	// assert
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, log.SeverityError, record.Severity())
	assert.Equal(t, "database query failed", record.Body().AsString())

	attrs := map[string]log.Value{}
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	assert.Len(t, attrs, 3)
	assert.Equal(t, "create_loan", attrs["operation"].AsString())
	assert.Equal(t, int64(2), attrs["attempt"].AsInt64())
	assert.Equal(t, "connection reset", attrs["error"].AsString())
}

type recordingLogger struct {
	log.Logger
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	l.records = append(l.records, record)
}
