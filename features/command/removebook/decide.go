package removebook

import (
	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

// State is what the handler loaded inside the unit of work, with the book row locked.
type State struct {
	BookFound   bool
	BookRemoved bool
	ActiveLoans int
}

// Decide implements the business logic to determine whether a book may leave the catalog.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: RemoveBook command is received
//	THEN: BookRemovedFromCatalog event is generated, the book is soft-deleted
//	ERROR: NotFound if the book does not exist
//	ERROR: ValidationFailed while the book has active loans
//	IDEMPOTENCY: If the book was removed already, no event is generated (no-op)
func Decide(s State, command Command) core.DecisionResult {
	if !s.BookFound {
		return reject(command, library.ErrNotFound, core.FailureBookNotFound)
	}

	if s.BookRemoved {
		return core.IdempotentDecision()
	}

	if s.ActiveLoans > 0 {
		return reject(command, library.ErrValidationFailed, core.FailureActiveLoansExist)
	}

	return core.SuccessDecision(core.BuildBookRemovedFromCatalog(command.BookID, command.OccurredAt))
}

func reject(command Command, kind error, reason string) core.DecisionResult {
	event := core.BuildRemovingBookFailed(command.BookID, reason, command.OccurredAt)

	return core.ErrorDecision(event, core.RejectionError(event, kind, reason))
}
