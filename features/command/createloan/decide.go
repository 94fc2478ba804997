package createloan

import (
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

const (
	failureReasonLoanIDRequired     = "loan id is required"
	failureReasonBookIDRequired     = "book id is required"
	failureReasonBorrowerIDRequired = "borrower id is required"
	failureReasonLoanIDReused       = "loan id already used for another checkout"
)

// State is what the handler loaded inside the unit of work, with the book row locked.
// ExistingBookID and ExistingBorrower describe the stored loan when LoanExists is set.
type State struct {
	LoanExists       bool
	ExistingBookID   uuid.UUID
	ExistingBorrower library.BorrowerRef
	BookFound        bool
	BookRemoved      bool
	TotalCopies      int
	ActiveLoans      int
	BorrowerFound    bool
}

// Available returns the number of copies on the shelf, derived from the active loans.
func (s State) Available() int {
	return s.TotalCopies - s.ActiveLoans
}

// Decide implements the business logic to determine whether a loan should be created.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book with BookID and a borrower of BorrowerKind with BorrowerID
//	WHEN: CreateLoan command is received
//	THEN: LoanCreated event is generated, due in 14 days, with one copy less on the shelf
//	ERROR: ValidationFailed if the loan id, the book id or the borrower id is missing, or the kind is unknown
//	ERROR: NotFound if the book does not exist or was removed from the catalog
//	ERROR: NotFound if the borrower does not exist
//	ERROR: OutOfStock if total copies minus active loans is not positive
//	ERROR: ValidationFailed if LoanID belongs to a loan of another book or borrower
//	IDEMPOTENCY: If a loan with LoanID exists already for the same book and borrower, no event is generated (no-op)
func Decide(s State, command Command) core.DecisionResult {
	if reason, ok := validate(command); !ok {
		return reject(command, library.ErrValidationFailed, reason)
	}

	if s.LoanExists {
		if s.ExistingBookID != command.BookID || s.ExistingBorrower != command.Borrower() {
			return reject(command, library.ErrValidationFailed, failureReasonLoanIDReused)
		}

		return core.IdempotentDecision()
	}

	if !s.BookFound {
		return reject(command, library.ErrNotFound, core.FailureBookNotFound)
	}

	if s.BookRemoved {
		return reject(command, library.ErrNotFound, core.FailureBookRemoved)
	}

	if !s.BorrowerFound {
		return reject(command, library.ErrNotFound, core.FailureBorrowerNotFound)
	}

	if s.Available() <= 0 {
		return reject(command, library.ErrOutOfStock, core.FailureOutOfStock)
	}

	return core.SuccessDecision(
		core.BuildLoanCreated(
			command.LoanID,
			command.BookID,
			command.Borrower(),
			s.Available()-1,
			command.OccurredAt,
		),
	)
}

func validate(command Command) (string, bool) {
	switch {
	case command.LoanID == uuid.Nil:
		return failureReasonLoanIDRequired, false
	case command.BookID == uuid.Nil:
		return failureReasonBookIDRequired, false
	case !command.BorrowerKind.Valid():
		return core.FailureInvalidBorrowerKind, false
	case command.BorrowerID == uuid.Nil:
		return failureReasonBorrowerIDRequired, false
	default:
		return "", true
	}
}

func reject(command Command, kind error, reason string) core.DecisionResult {
	event := core.BuildCreatingLoanFailed(
		command.LoanID,
		command.BookID,
		string(command.BorrowerKind),
		command.BorrowerID,
		reason,
		command.OccurredAt,
	)

	return core.ErrorDecision(event, core.RejectionError(event, kind, reason))
}
