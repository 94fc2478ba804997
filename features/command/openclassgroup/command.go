package openclassgroup

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
)

const (
	commandType = "OpenClassGroup"
)

// Command represents the intent to open a school class.
type Command struct {
	ClassGroupID uuid.UUID
	Name         string
	OccurredAt   core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command.
func BuildCommand(classGroupID uuid.UUID, name string, occurredAt time.Time) Command {
	return Command{
		ClassGroupID: classGroupID,
		Name:         name,
		OccurredAt:   core.ToOccurredAt(occurredAt),
	}
}
