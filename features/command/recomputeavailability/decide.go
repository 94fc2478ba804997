package recomputeavailability

import (
	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

// State is what the handler loaded inside the unit of work, with the book row locked.
type State struct {
	BookFound       bool
	BookRemoved     bool
	TotalCopies     int
	AvailableCopies int
	ActiveLoans     int
}

// Decide implements the business logic to determine the new copy counters of a book.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: RecomputeAvailability command is received with NewTotalCopies
//	THEN: AvailabilityRecomputed event is generated with available = NewTotalCopies - active loans
//	ERROR: NotFound if the book does not exist or was removed from the catalog
//	ERROR: ValidationFailed if NewTotalCopies is negative or below the active loans
//	IDEMPOTENCY: If the total is unchanged and the counter is not drifted, no event is generated (no-op)
func Decide(s State, command Command) core.DecisionResult {
	if !s.BookFound {
		return reject(command, library.ErrNotFound, core.FailureBookNotFound)
	}

	if s.BookRemoved {
		return reject(command, library.ErrNotFound, core.FailureBookRemoved)
	}

	if command.NewTotalCopies < 0 {
		return reject(command, library.ErrValidationFailed, core.FailureNegativeTotal)
	}

	if command.NewTotalCopies < s.ActiveLoans {
		return reject(command, library.ErrValidationFailed, core.FailureTotalBelowActive)
	}

	if command.NewTotalCopies == s.TotalCopies && s.AvailableCopies == s.TotalCopies-s.ActiveLoans {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildAvailabilityRecomputed(
			command.BookID,
			s.TotalCopies,
			command.NewTotalCopies,
			s.ActiveLoans,
			command.OccurredAt,
		),
	)
}

func reject(command Command, kind error, reason string) core.DecisionResult {
	event := core.BuildRecomputingAvailabilityFailed(command.BookID, command.NewTotalCopies, reason, command.OccurredAt)

	return core.ErrorDecision(event, core.RejectionError(event, kind, reason))
}
