package registerborrower

import (
	"strings"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

const (
	failureReasonBorrowerIDRequired         = "borrower id is required"
	failureReasonRegistrationNumberRequired = "registration number is required"
)

// State is what the handler loaded inside the unit of work.
type State struct {
	BorrowerExists  bool
	ClassGroupFound bool
}

// Decide implements the business logic to determine whether a borrower should be registered.
//
// Business Rules:
//
//	GIVEN: A BorrowerID of BorrowerKind that is not registered
//	WHEN: RegisterBorrower command is received
//	THEN: BorrowerRegistered event is generated
//	ERROR: ValidationFailed if the id or the name is missing, or the kind is unknown
//	ERROR: ValidationFailed if a student has no registration number, or a class group that does not exist
//	IDEMPOTENCY: If the borrower is registered already, no event is generated (no-op)
func Decide(s State, command Command) core.DecisionResult {
	switch {
	case command.BorrowerID == uuid.Nil:
		return reject(command, failureReasonBorrowerIDRequired)
	case !command.BorrowerKind.Valid():
		return reject(command, core.FailureInvalidBorrowerKind)
	case s.BorrowerExists:
		return core.IdempotentDecision()
	case strings.TrimSpace(command.Name) == "":
		return reject(command, core.FailureNameRequired)
	}

	var classGroupID *uuid.UUID

	if command.BorrowerKind == library.BorrowerStudent {
		if strings.TrimSpace(command.RegistrationNumber) == "" {
			return reject(command, failureReasonRegistrationNumberRequired)
		}

		if command.ClassGroupID != nil && !s.ClassGroupFound {
			return reject(command, core.FailureClassGroupNotFound)
		}

		classGroupID = command.ClassGroupID
	}

	return core.SuccessDecision(
		core.BuildBorrowerRegistered(
			string(command.BorrowerKind),
			command.BorrowerID,
			strings.TrimSpace(command.Name),
			strings.TrimSpace(command.RegistrationNumber),
			classGroupID,
			command.OccurredAt,
		),
	)
}

func reject(command Command, reason string) core.DecisionResult {
	event := core.BuildRegisteringBorrowerFailed(string(command.BorrowerKind), command.BorrowerID, reason, command.OccurredAt)

	return core.ErrorDecision(event, core.RejectionError(event, library.ErrValidationFailed, reason))
}
