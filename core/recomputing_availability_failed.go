package core

import (
	"time"

	"github.com/google/uuid"
)

// RecomputingAvailabilityFailedEventType is the event type identifier.
const RecomputingAvailabilityFailedEventType = "RecomputingAvailabilityFailed"

// RecomputingAvailabilityFailed represents a rejected change of the total copies.
type RecomputingAvailabilityFailed struct {
	EventType      EventTypeString `json:"eventType"`
	BookID         BookIDString    `json:"bookId"`
	RequestedTotal int             `json:"requestedTotal"`
	FailureInfo    string          `json:"failureInfo"`
	OccurredAt     OccurredAtTS    `json:"occurredAt"`
}

// BuildRecomputingAvailabilityFailed creates a new RecomputingAvailabilityFailed event.
func BuildRecomputingAvailabilityFailed(
	bookID uuid.UUID,
	requestedTotal int,
	failureInfo string,
	occurredAt time.Time,
) RecomputingAvailabilityFailed {

	return RecomputingAvailabilityFailed{
		EventType:      RecomputingAvailabilityFailedEventType,
		BookID:         bookID.String(),
		RequestedTotal: requestedTotal,
		FailureInfo:    failureInfo,
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e RecomputingAvailabilityFailed) IsEventType() string {
	return RecomputingAvailabilityFailedEventType
}

// HasOccurredAt returns when this event occurred.
func (e RecomputingAvailabilityFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns true since this event represents a failure condition.
func (e RecomputingAvailabilityFailed) IsErrorEvent() bool {
	return true
}

func (e RecomputingAvailabilityFailed) ConcernsBook() string { return e.BookID }
