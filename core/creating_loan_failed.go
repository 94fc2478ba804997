package core

import (
	"time"

	"github.com/google/uuid"
)

// CreatingLoanFailedEventType is the event type identifier.
const CreatingLoanFailedEventType = "CreatingLoanFailed"

// CreatingLoanFailed represents a rejected checkout.
type CreatingLoanFailed struct {
	EventType    EventTypeString  `json:"eventType"`
	LoanID       LoanIDString     `json:"loanId"`
	BookID       BookIDString     `json:"bookId"`
	BorrowerKind string           `json:"borrowerKind"`
	BorrowerID   BorrowerIDString `json:"borrowerId"`
	FailureInfo  string           `json:"failureInfo"`
	OccurredAt   OccurredAtTS     `json:"occurredAt"`
}

// BuildCreatingLoanFailed creates a new CreatingLoanFailed event.
// loanID is the id the caller asked for; no loan with that id exists.
func BuildCreatingLoanFailed(
	loanID uuid.UUID,
	bookID uuid.UUID,
	borrowerKind string,
	borrowerID uuid.UUID,
	failureInfo string,
	occurredAt time.Time,
) CreatingLoanFailed {

	return CreatingLoanFailed{
		EventType:    CreatingLoanFailedEventType,
		LoanID:       loanID.String(),
		BookID:       bookID.String(),
		BorrowerKind: borrowerKind,
		BorrowerID:   borrowerID.String(),
		FailureInfo:  failureInfo,
		OccurredAt:   ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e CreatingLoanFailed) IsEventType() string {
	return CreatingLoanFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e CreatingLoanFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e CreatingLoanFailed) IsErrorEvent() bool {
	return true
}

func (e CreatingLoanFailed) ConcernsLoan() string { return e.LoanID }
func (e CreatingLoanFailed) ConcernsBook() string { return e.BookID }
