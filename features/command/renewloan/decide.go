package renewloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

// State is what the handler loaded inside the unit of work, with the loan locked.
type State struct {
	LoanFound    bool
	LoanReturned bool
	BookID       uuid.UUID
	DueDate      time.Time
	RenewalCount int
}

// Decide implements the business logic to determine whether a loan may be renewed.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: An active loan with LoanID
//	WHEN: RenewLoan command is received
//	THEN: LoanRenewed event is generated, due 14 days from now; status and availability stay as they are
//	ERROR: NotFound if the loan does not exist
//	ERROR: NotEligible if the loan was returned
//	ERROR: NotEligible if the loan is neither overdue nor due within 3 days
func Decide(s State, command Command) core.DecisionResult {
	if !s.LoanFound {
		return reject(command, library.ErrNotFound, core.FailureLoanNotFound)
	}

	if s.LoanReturned {
		return reject(command, library.ErrNotEligible, core.FailureLoanReturned)
	}

	if !library.IsRenewable(s.DueDate, command.OccurredAt) {
		return reject(command, library.ErrNotEligible, core.FailureNotYetRenewable)
	}

	return core.SuccessDecision(
		core.BuildLoanRenewed(
			command.LoanID,
			s.BookID,
			s.DueDate,
			s.RenewalCount+1,
			command.OccurredAt,
		),
	)
}

func reject(command Command, kind error, reason string) core.DecisionResult {
	event := core.BuildRenewingLoanFailed(command.LoanID, reason, command.OccurredAt)

	return core.ErrorDecision(event, core.RejectionError(event, kind, reason))
}
