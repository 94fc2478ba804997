package addbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
)

const (
	commandType = "AddBook"
)

// Details are the descriptive fields of a catalog entry.
type Details struct {
	Title           string
	Author          string
	Publisher       string
	Edition         string
	PublicationYear int
	ShelfLifeYears  *int
	Category        string
	Grade           string
	Stage           string
}

// Command represents the intent to add a book with a number of copies to the catalog.
type Command struct {
	BookID      uuid.UUID
	Details     Details
	TotalCopies int
	OccurredAt  core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, details Details, totalCopies int, occurredAt time.Time) Command {
	return Command{
		BookID:      bookID,
		Details:     details,
		TotalCopies: totalCopies,
		OccurredAt:  core.ToOccurredAt(occurredAt),
	}
}
