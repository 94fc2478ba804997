package core

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRecomputedEventType is the event type identifier.
const AvailabilityRecomputedEventType = "AvailabilityRecomputed"

// AvailabilityRecomputed represents a change of the number of copies a book has,
// with the available copies derived from the active loans.
type AvailabilityRecomputed struct {
	EventType       EventTypeString `json:"eventType"`
	BookID          BookIDString    `json:"bookId"`
	PreviousTotal   int             `json:"previousTotal"`
	TotalCopies     int             `json:"totalCopies"`
	ActiveLoans     int             `json:"activeLoans"`
	AvailableCopies int             `json:"availableCopies"`
	OccurredAt      OccurredAtTS    `json:"occurredAt"`
}

// BuildAvailabilityRecomputed creates a new AvailabilityRecomputed event.
func BuildAvailabilityRecomputed(
	bookID uuid.UUID,
	previousTotal int,
	totalCopies int,
	activeLoans int,
	occurredAt time.Time,
) AvailabilityRecomputed {

	return AvailabilityRecomputed{
		EventType:       AvailabilityRecomputedEventType,
		BookID:          bookID.String(),
		PreviousTotal:   previousTotal,
		TotalCopies:     totalCopies,
		ActiveLoans:     activeLoans,
		AvailableCopies: totalCopies - activeLoans,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e AvailabilityRecomputed) IsEventType() string {
	return AvailabilityRecomputedEventType
}

// HasOccurredAt returns when this event occurred.
func (e AvailabilityRecomputed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e AvailabilityRecomputed) IsErrorEvent() bool {
	return false
}

func (e AvailabilityRecomputed) ConcernsBook() string { return e.BookID }
