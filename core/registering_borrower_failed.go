package core

import (
	"time"

	"github.com/google/uuid"
)

// RegisteringBorrowerFailedEventType is the event type identifier.
const RegisteringBorrowerFailedEventType = "RegisteringBorrowerFailed"

// RegisteringBorrowerFailed represents a rejected registration.
type RegisteringBorrowerFailed struct {
	EventType    EventTypeString  `json:"eventType"`
	BorrowerKind string           `json:"borrowerKind"`
	BorrowerID   BorrowerIDString `json:"borrowerId"`
	FailureInfo  string           `json:"failureInfo"`
	OccurredAt   OccurredAtTS     `json:"occurredAt"`
}

// BuildRegisteringBorrowerFailed creates a new RegisteringBorrowerFailed event.
func BuildRegisteringBorrowerFailed(
	borrowerKind string,
	borrowerID uuid.UUID,
	failureInfo string,
	occurredAt time.Time,
) RegisteringBorrowerFailed {

	return RegisteringBorrowerFailed{
		EventType:    RegisteringBorrowerFailedEventType,
		BorrowerKind: borrowerKind,
		BorrowerID:   borrowerID.String(),
		FailureInfo:  failureInfo,
		OccurredAt:   ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e RegisteringBorrowerFailed) IsEventType() string {
	return RegisteringBorrowerFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e RegisteringBorrowerFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e RegisteringBorrowerFailed) IsErrorEvent() bool {
	return true
}
