package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

// LoanRenewedEventType is the event type identifier.
const LoanRenewedEventType = "LoanRenewed"

// LoanRenewed represents a loan period being extended. Only the due date changes.
type LoanRenewed struct {
	EventType       EventTypeString `json:"eventType"`
	LoanID          LoanIDString    `json:"loanId"`
	BookID          BookIDString    `json:"bookId"`
	PreviousDueDate time.Time       `json:"previousDueDate"`
	NewDueDate      time.Time       `json:"newDueDate"`
	RenewalCount    int             `json:"renewalCount"`
	OccurredAt      OccurredAtTS    `json:"occurredAt"`
}

// BuildLoanRenewed creates a new LoanRenewed event. The new due date is a full loan period
// after the occurrence time.
func BuildLoanRenewed(
	loanID uuid.UUID,
	bookID uuid.UUID,
	previousDueDate time.Time,
	renewalCount int,
	occurredAt time.Time,
) LoanRenewed {

	return LoanRenewed{
		EventType:       LoanRenewedEventType,
		LoanID:          loanID.String(),
		BookID:          bookID.String(),
		PreviousDueDate: library.ToTimestamp(previousDueDate),
		NewDueDate:      library.DueDateFrom(occurredAt),
		RenewalCount:    renewalCount,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanRenewed) IsEventType() string {
	return LoanRenewedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanRenewed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e LoanRenewed) IsErrorEvent() bool {
	return false
}

func (e LoanRenewed) ConcernsLoan() string { return e.LoanID }
func (e LoanRenewed) ConcernsBook() string { return e.BookID }
