package library

import (
	"errors"
	"fmt"
)

// The error taxonomy of the circulation service. Engines and handlers wrap these,
// so callers should always test with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrOutOfStock       = errors.New("no copies available")
	ErrValidationFailed = errors.New("validation failed")
	ErrNotEligible      = errors.New("loan is not eligible for renewal")
	ErrUnavailable      = errors.New("backend unavailable")
)

// ErrConcurrencyConflict signals that a guarded write lost against a concurrent writer.
// It never leaves the command handlers, which retry it.
var ErrConcurrencyConflict = errors.New("concurrency conflict, no rows were affected")

var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrUnsupportedDialect    = errors.New("unsupported sql dialect")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrScanningDBRowFailed   = errors.New("scanning db row failed")
	ErrQueryingFailed        = errors.New("querying failed")
	ErrWritingFailed         = errors.New("writing failed")
	ErrTransactionFailed     = errors.New("transaction failed")
)

// IsRetryable reports whether an operation that failed with err may be attempted again.
// Only transient backend failures and lost concurrency races qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrConcurrencyConflict)
}

// Validation builds an ErrValidationFailed error carrying a reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, reason)
}
