package core

import (
	"time"

	"github.com/google/uuid"
)

// OpeningClassGroupFailedEventType is the event type identifier.
const OpeningClassGroupFailedEventType = "OpeningClassGroupFailed"

// OpeningClassGroupFailed represents a rejected class group.
type OpeningClassGroupFailed struct {
	EventType    EventTypeString `json:"eventType"`
	ClassGroupID string          `json:"classGroupId"`
	FailureInfo  string          `json:"failureInfo"`
	OccurredAt   OccurredAtTS    `json:"occurredAt"`
}

// BuildOpeningClassGroupFailed creates a new OpeningClassGroupFailed event.
func BuildOpeningClassGroupFailed(classGroupID uuid.UUID, failureInfo string, occurredAt time.Time) OpeningClassGroupFailed {
	return OpeningClassGroupFailed{
		EventType:    OpeningClassGroupFailedEventType,
		ClassGroupID: classGroupID.String(),
		FailureInfo:  failureInfo,
		OccurredAt:   ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e OpeningClassGroupFailed) IsEventType() string {
	return OpeningClassGroupFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e OpeningClassGroupFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e OpeningClassGroupFailed) IsErrorEvent() bool {
	return true
}
