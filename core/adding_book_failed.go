package core

import (
	"time"

	"github.com/google/uuid"
)

// AddingBookFailedEventType is the event type identifier.
const AddingBookFailedEventType = "AddingBookFailed"

// AddingBookFailed represents a rejected catalog entry.
type AddingBookFailed struct {
	EventType   EventTypeString `json:"eventType"`
	BookID      BookIDString    `json:"bookId"`
	FailureInfo string          `json:"failureInfo"`
	OccurredAt  OccurredAtTS    `json:"occurredAt"`
}

// BuildAddingBookFailed creates a new AddingBookFailed event.
func BuildAddingBookFailed(bookID uuid.UUID, failureInfo string, occurredAt time.Time) AddingBookFailed {
	return AddingBookFailed{
		EventType:   AddingBookFailedEventType,
		BookID:      bookID.String(),
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e AddingBookFailed) IsEventType() string {
	return AddingBookFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e AddingBookFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e AddingBookFailed) IsErrorEvent() bool {
	return true
}
