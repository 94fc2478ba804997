package core

import (
	"time"

	"github.com/google/uuid"
)

// LoanReturnedEventType is the event type identifier.
const LoanReturnedEventType = "LoanReturned"

// LoanReturned represents a borrower bringing a copy back.
type LoanReturned struct {
	EventType            EventTypeString `json:"eventType"`
	LoanID               LoanIDString    `json:"loanId"`
	BookID               BookIDString    `json:"bookId"`
	ReturnDate           time.Time       `json:"returnDate"`
	AvailableCopiesAfter int             `json:"availableCopiesAfter"`
	OccurredAt           OccurredAtTS    `json:"occurredAt"`
}

// BuildLoanReturned creates a new LoanReturned event. The return date is the occurrence time.
func BuildLoanReturned(loanID uuid.UUID, bookID uuid.UUID, availableCopiesAfter int, occurredAt time.Time) LoanReturned {
	return LoanReturned{
		EventType:            LoanReturnedEventType,
		LoanID:               loanID.String(),
		BookID:               bookID.String(),
		ReturnDate:           ToOccurredAt(occurredAt),
		AvailableCopiesAfter: availableCopiesAfter,
		OccurredAt:           ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanReturned) IsEventType() string {
	return LoanReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e LoanReturned) IsErrorEvent() bool {
	return false
}

func (e LoanReturned) ConcernsLoan() string { return e.LoanID }
func (e LoanReturned) ConcernsBook() string { return e.BookID }
