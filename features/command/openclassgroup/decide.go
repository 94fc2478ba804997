package openclassgroup

import (
	"strings"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

const failureReasonClassGroupIDRequired = "class group id is required"

// Decide implements the business logic to determine whether a class group should be opened.
//
// Business Rules:
//
//	GIVEN: A ClassGroupID that is not known
//	WHEN: OpenClassGroup command is received
//	THEN: ClassGroupOpened event is generated
//	ERROR: ValidationFailed if the id or the name is missing
//	IDEMPOTENCY: If the class group exists already, no event is generated (no-op)
func Decide(classGroupExists bool, command Command) core.DecisionResult {
	switch {
	case command.ClassGroupID == uuid.Nil:
		return reject(command, failureReasonClassGroupIDRequired)
	case classGroupExists:
		return core.IdempotentDecision()
	case strings.TrimSpace(command.Name) == "":
		return reject(command, core.FailureNameRequired)
	}

	return core.SuccessDecision(
		core.BuildClassGroupOpened(command.ClassGroupID, strings.TrimSpace(command.Name), command.OccurredAt),
	)
}

func reject(command Command, reason string) core.DecisionResult {
	event := core.BuildOpeningClassGroupFailed(command.ClassGroupID, reason, command.OccurredAt)

	return core.ErrorDecision(event, core.RejectionError(event, library.ErrValidationFailed, reason))
}
