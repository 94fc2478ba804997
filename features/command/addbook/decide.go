package addbook

import (
	"strings"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

const failureReasonBookIDRequired = "book id is required"

// Decide implements the business logic to determine whether a book should be added.
// bookExists tells whether a book with the command's BookID is in the catalog already.
//
// Business Rules:
//
//	GIVEN: A BookID that is not in the catalog
//	WHEN: AddBook command is received
//	THEN: BookAddedToCatalog event is generated, all copies are available
//	ERROR: ValidationFailed if the book id is missing
//	ERROR: ValidationFailed if the title is blank or the total copies are negative
//	IDEMPOTENCY: If the book exists already, no event is generated (no-op)
func Decide(bookExists bool, command Command) core.DecisionResult {
	if command.BookID == uuid.Nil {
		return reject(command, failureReasonBookIDRequired)
	}

	if bookExists {
		return core.IdempotentDecision()
	}

	if strings.TrimSpace(command.Details.Title) == "" {
		return reject(command, core.FailureTitleRequired)
	}

	if command.TotalCopies < 0 {
		return reject(command, core.FailureNegativeTotal)
	}

	return core.SuccessDecision(
		core.BuildBookAddedToCatalog(
			command.BookID,
			strings.TrimSpace(command.Details.Title),
			strings.TrimSpace(command.Details.Author),
			command.TotalCopies,
			command.OccurredAt,
		),
	)
}

func reject(command Command, reason string) core.DecisionResult {
	event := core.BuildAddingBookFailed(command.BookID, reason, command.OccurredAt)

	return core.ErrorDecision(event, core.RejectionError(event, library.ErrValidationFailed, reason))
}
