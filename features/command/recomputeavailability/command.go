package recomputeavailability

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
)

const (
	commandType = "RecomputeAvailability"
)

// Command represents the intent to change the number of copies a book has.
type Command struct {
	BookID         uuid.UUID
	NewTotalCopies int
	OccurredAt     core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, newTotalCopies int, occurredAt time.Time) Command {
	return Command{
		BookID:         bookID,
		NewTotalCopies: newTotalCopies,
		OccurredAt:     core.ToOccurredAt(occurredAt),
	}
}
