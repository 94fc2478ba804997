package core

import (
	"time"

	"github.com/google/uuid"
)

// RenewingLoanFailedEventType is the event type identifier.
const RenewingLoanFailedEventType = "RenewingLoanFailed"

// RenewingLoanFailed represents a rejected renewal.
type RenewingLoanFailed struct {
	EventType   EventTypeString `json:"eventType"`
	LoanID      LoanIDString    `json:"loanId"`
	FailureInfo string          `json:"failureInfo"`
	OccurredAt  OccurredAtTS    `json:"occurredAt"`
}

// BuildRenewingLoanFailed creates a new RenewingLoanFailed event.
func BuildRenewingLoanFailed(loanID uuid.UUID, failureInfo string, occurredAt time.Time) RenewingLoanFailed {
	return RenewingLoanFailed{
		EventType:   RenewingLoanFailedEventType,
		LoanID:      loanID.String(),
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e RenewingLoanFailed) IsEventType() string {
	return RenewingLoanFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e RenewingLoanFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e RenewingLoanFailed) IsErrorEvent() bool {
	return true
}

func (e RenewingLoanFailed) ConcernsLoan() string { return e.LoanID }
