package core

import (
	"time"

	"github.com/google/uuid"
)

// ClassGroupOpenedEventType is the event type identifier.
const ClassGroupOpenedEventType = "ClassGroupOpened"

// ClassGroupOpened represents a new school class students can be assigned to.
type ClassGroupOpened struct {
	EventType    EventTypeString `json:"eventType"`
	ClassGroupID string          `json:"classGroupId"`
	Name         string          `json:"name"`
	OccurredAt   OccurredAtTS    `json:"occurredAt"`
}

// BuildClassGroupOpened creates a new ClassGroupOpened event.
func BuildClassGroupOpened(classGroupID uuid.UUID, name string, occurredAt time.Time) ClassGroupOpened {
	return ClassGroupOpened{
		EventType:    ClassGroupOpenedEventType,
		ClassGroupID: classGroupID.String(),
		Name:         name,
		OccurredAt:   ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e ClassGroupOpened) IsEventType() string {
	return ClassGroupOpenedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ClassGroupOpened) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e ClassGroupOpened) IsErrorEvent() bool {
	return false
}
