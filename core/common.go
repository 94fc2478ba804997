package core

import (
	"time"

	"github.com/schoollibrary/circulation/library"
)

// BookIDString represents a book identifier
type BookIDString = string

// LoanIDString represents a loan identifier
type LoanIDString = string

// BorrowerIDString represents a student or teacher identifier
type BorrowerIDString = string

// EventTypeString represents the type of an event
type EventTypeString = string

// OccurredAtTS represents when an event occurred
type OccurredAtTS = time.Time

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAtTS {
	return library.ToTimestamp(t)
}

// Failure reasons recorded by the *Failed events.
const (
	FailureBookNotFound        = "book not found"
	FailureBookRemoved         = "book was removed from the catalog"
	FailureBorrowerNotFound    = "borrower not found"
	FailureInvalidBorrowerKind = "borrower kind must be student or teacher"
	FailureOutOfStock          = "no copies available"
	FailureLoanNotFound        = "loan not found"
	FailureLoanReturned        = "loan was already returned"
	FailureNotYetRenewable     = "loan is not due within the renewal window"
	FailureNegativeTotal       = "total copies must not be negative"
	FailureTotalBelowActive    = "total copies must not be below the active loans"
	FailureTitleRequired       = "title is required"
	FailureNameRequired        = "name is required"
	FailureClassGroupNotFound  = "class group not found"
	FailureActiveLoansExist    = "book still has active loans"
)
