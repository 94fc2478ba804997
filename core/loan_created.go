package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

// LoanCreatedEventType is the event type identifier.
const LoanCreatedEventType = "LoanCreated"

// LoanCreated represents a copy of a book being checked out by a borrower.
type LoanCreated struct {
	EventType            EventTypeString  `json:"eventType"`
	LoanID               LoanIDString     `json:"loanId"`
	BookID               BookIDString     `json:"bookId"`
	BorrowerKind         string           `json:"borrowerKind"`
	BorrowerID           BorrowerIDString `json:"borrowerId"`
	LoanDate             time.Time        `json:"loanDate"`
	DueDate              time.Time        `json:"dueDate"`
	AvailableCopiesAfter int              `json:"availableCopiesAfter"`
	OccurredAt           OccurredAtTS     `json:"occurredAt"`
}

// BuildLoanCreated creates a new LoanCreated event. The loan date is the occurrence time.
func BuildLoanCreated(
	loanID uuid.UUID,
	bookID uuid.UUID,
	borrower library.BorrowerRef,
	availableCopiesAfter int,
	occurredAt time.Time,
) LoanCreated {

	return LoanCreated{
		EventType:            LoanCreatedEventType,
		LoanID:               loanID.String(),
		BookID:               bookID.String(),
		BorrowerKind:         string(borrower.Kind),
		BorrowerID:           borrower.ID.String(),
		LoanDate:             ToOccurredAt(occurredAt),
		DueDate:              library.DueDateFrom(occurredAt),
		AvailableCopiesAfter: availableCopiesAfter,
		OccurredAt:           ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanCreated) IsEventType() string {
	return LoanCreatedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanCreated) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e LoanCreated) IsErrorEvent() bool {
	return false
}

func (e LoanCreated) ConcernsLoan() string { return e.LoanID }
func (e LoanCreated) ConcernsBook() string { return e.BookID }
