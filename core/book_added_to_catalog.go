package core

import (
	"time"

	"github.com/google/uuid"
)

// BookAddedToCatalogEventType is the event type identifier.
const BookAddedToCatalogEventType = "BookAddedToCatalog"

// BookAddedToCatalog represents a new title with its copies entering the library.
type BookAddedToCatalog struct {
	EventType   EventTypeString `json:"eventType"`
	BookID      BookIDString    `json:"bookId"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	TotalCopies int             `json:"totalCopies"`
	OccurredAt  OccurredAtTS    `json:"occurredAt"`
}

// BuildBookAddedToCatalog creates a new BookAddedToCatalog event.
func BuildBookAddedToCatalog(
	bookID uuid.UUID,
	title string,
	author string,
	totalCopies int,
	occurredAt time.Time,
) BookAddedToCatalog {

	return BookAddedToCatalog{
		EventType:   BookAddedToCatalogEventType,
		BookID:      bookID.String(),
		Title:       title,
		Author:      author,
		TotalCopies: totalCopies,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookAddedToCatalog) IsEventType() string {
	return BookAddedToCatalogEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookAddedToCatalog) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e BookAddedToCatalog) IsErrorEvent() bool {
	return false
}

func (e BookAddedToCatalog) ConcernsBook() string { return e.BookID }
