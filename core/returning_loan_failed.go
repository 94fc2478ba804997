package core

import (
	"time"

	"github.com/google/uuid"
)

// ReturningLoanFailedEventType is the event type identifier.
const ReturningLoanFailedEventType = "ReturningLoanFailed"

// ReturningLoanFailed represents a rejected return.
type ReturningLoanFailed struct {
	EventType   EventTypeString `json:"eventType"`
	LoanID      LoanIDString    `json:"loanId"`
	FailureInfo string          `json:"failureInfo"`
	OccurredAt  OccurredAtTS    `json:"occurredAt"`
}

// BuildReturningLoanFailed creates a new ReturningLoanFailed event.
func BuildReturningLoanFailed(loanID uuid.UUID, failureInfo string, occurredAt time.Time) ReturningLoanFailed {
	return ReturningLoanFailed{
		EventType:   ReturningLoanFailedEventType,
		LoanID:      loanID.String(),
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ReturningLoanFailed) IsEventType() string {
	return ReturningLoanFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReturningLoanFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e ReturningLoanFailed) IsErrorEvent() bool {
	return true
}

func (e ReturningLoanFailed) ConcernsLoan() string { return e.LoanID }
