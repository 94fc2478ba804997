package returnloan

import (
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

// State is what the handler loaded inside the unit of work, with the book and the loan locked.
// ActiveLoans still counts the loan being returned.
type State struct {
	LoanFound    bool
	LoanReturned bool
	BookID       uuid.UUID
	TotalCopies  int
	ActiveLoans  int
}

// Decide implements the business logic to determine whether a loan should be returned.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A loan with LoanID
//	WHEN: ReturnLoan command is received
//	THEN: LoanReturned event is generated, the return date is now and the copy goes back on the shelf
//	ERROR: NotFound if the loan does not exist
//	IDEMPOTENCY: If the loan was returned already, no event is generated (no-op),
//	neither the return date nor the counter change
func Decide(s State, command Command) core.DecisionResult {
	if !s.LoanFound {
		event := core.BuildReturningLoanFailed(command.LoanID, core.FailureLoanNotFound, command.OccurredAt)
		return core.ErrorDecision(event, core.RejectionError(event, library.ErrNotFound, core.FailureLoanNotFound))
	}

	if s.LoanReturned {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildLoanReturned(
			command.LoanID,
			s.BookID,
			availableAfterReturn(s.TotalCopies, s.ActiveLoans-1),
			command.OccurredAt,
		),
	)
}

// availableAfterReturn derives the counter, clamped into [0, total].
func availableAfterReturn(total int, activeAfterReturn int) int {
	return max(0, min(total, total-activeAfterReturn))
}
