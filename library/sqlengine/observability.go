package sqlengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/schoollibrary/circulation/library"
)

const (
	metricOperationDuration = "library_sql_operation_duration_seconds"
	metricOperationErrors   = "library_sql_errors_total"

	spanNamePrefix = "library.sql."

	spanAttrOperation  = "operation"
	spanAttrDialect    = "db.system"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeNotFound    = "not_found"
	errorTypeUnavailable = "unavailable"
	errorTypeValidation  = "validation"
	errorTypeConflict    = "concurrency_conflict"
	errorTypeCanceled    = "canceled"
	errorTypeOther       = "other"
)

const (
	logMsgSQLExecuted        = "sql executed: "
	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgDBQueryFailed      = "database query failed"
	logMsgDBExecFailed       = "database exec failed"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitFailed       = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to rollback transaction"
	logMsgMigrated           = "schema migrated"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrOperation  = "operation"
	logAttrDurationMS = "duration_ms"
	logAttrDialect    = "dialect"
)

const (
	operationTransaction = "transaction"
	operationMigrate     = "migrate"
)

// operationObserver tracks one storage operation for tracing and metrics.
type operationObserver struct {
	e         *Engine
	ctx       context.Context
	span      library.SpanContext
	operation string
	start     time.Time
}

func (e *Engine) startOperation(ctx context.Context, operation string) (context.Context, *operationObserver) {
	observer := &operationObserver{e: e, operation: operation, start: time.Now()}

	if e.tracingCollector != nil {
		ctx, observer.span = e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
			spanAttrOperation: operation,
			spanAttrDialect:   e.dialect,
		})
	}

	observer.ctx = ctx

	return ctx, observer
}

func (o *operationObserver) finish(err error) {
	duration := time.Since(o.start)
	status := statusSuccess
	attrs := map[string]string{spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration))}

	if err != nil && !errors.Is(err, library.ErrNotFound) {
		status = statusError
		errorType := classifyError(err)
		attrs[spanAttrErrorType] = errorType
		o.e.incrementCounter(o.ctx, metricOperationErrors, map[string]string{
			spanAttrOperation: o.operation,
			spanAttrErrorType: errorType,
		})
	}

	o.e.recordDuration(o.ctx, metricOperationDuration, duration, map[string]string{
		spanAttrOperation: o.operation,
		"status":          status,
	})

	if o.e.tracingCollector != nil && o.span != nil {
		o.e.tracingCollector.FinishSpan(o.span, status, attrs)
	}
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	case errors.Is(err, library.ErrUnavailable):
		return errorTypeUnavailable
	case errors.Is(err, library.ErrConcurrencyConflict):
		return errorTypeConflict
	case errors.Is(err, library.ErrValidationFailed):
		return errorTypeValidation
	case errors.Is(err, library.ErrNotFound):
		return errorTypeNotFound
	default:
		return errorTypeOther
	}
}

func (e *Engine) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextual, ok := e.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	e.metricsCollector.RecordDuration(metric, duration, labels)
}

func (e *Engine) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextual, ok := e.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	e.metricsCollector.IncrementCounter(metric, labels)
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (e *Engine) logQueryWithDuration(ctx context.Context, sqlQuery string, operation string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, args...)
	case e.logger != nil:
		e.logger.Debug(logMsgSQLExecuted+operation, args...)
	}
}

func (e *Engine) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.InfoContext(ctx, msg, args...)
	case e.logger != nil:
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.WarnContext(ctx, msg, args...)
	case e.logger != nil:
		e.logger.Warn(msg, args...)
	}
}

// logError logs at error level. Cancellations are the caller's choice, they go to debug.
func (e *Engine) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if errors.Is(err, context.Canceled) {
		switch {
		case e.contextualLogger != nil:
			e.contextualLogger.DebugContext(ctx, msg, allArgs...)
		case e.logger != nil:
			e.logger.Debug(msg, allArgs...)
		}

		return
	}

	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	case e.logger != nil:
		e.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
