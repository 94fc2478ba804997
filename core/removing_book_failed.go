package core

import (
	"time"

	"github.com/google/uuid"
)

// RemovingBookFailedEventType is the event type identifier.
const RemovingBookFailedEventType = "RemovingBookFailed"

// RemovingBookFailed represents a rejected soft delete.
type RemovingBookFailed struct {
	EventType   EventTypeString `json:"eventType"`
	BookID      BookIDString    `json:"bookId"`
	FailureInfo string          `json:"failureInfo"`
	OccurredAt  OccurredAtTS    `json:"occurredAt"`
}

// BuildRemovingBookFailed creates a new RemovingBookFailed event.
func BuildRemovingBookFailed(bookID uuid.UUID, failureInfo string, occurredAt time.Time) RemovingBookFailed {
	return RemovingBookFailed{
		EventType:   RemovingBookFailedEventType,
		BookID:      bookID.String(),
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e RemovingBookFailed) IsEventType() string {
	return RemovingBookFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e RemovingBookFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e RemovingBookFailed) IsErrorEvent() bool {
	return true
}

func (e RemovingBookFailed) ConcernsBook() string { return e.BookID }
