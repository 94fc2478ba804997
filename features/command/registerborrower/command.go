package registerborrower

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

const (
	commandType = "RegisterBorrower"
)

// Command represents the intent to register a student or a teacher as a borrower.
// RegistrationNumber and ClassGroupID only apply to students.
type Command struct {
	BorrowerKind       library.BorrowerKind
	BorrowerID         uuid.UUID
	Name               string
	RegistrationNumber string
	ClassGroupID       *uuid.UUID
	OccurredAt         core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildStudentCommand creates a Command registering a student.
func BuildStudentCommand(
	studentID uuid.UUID,
	name string,
	registrationNumber string,
	classGroupID *uuid.UUID,
	occurredAt time.Time,
) Command {

	return Command{
		BorrowerKind:       library.BorrowerStudent,
		BorrowerID:         studentID,
		Name:               name,
		RegistrationNumber: registrationNumber,
		ClassGroupID:       classGroupID,
		OccurredAt:         core.ToOccurredAt(occurredAt),
	}
}

// BuildTeacherCommand creates a Command registering a teacher.
func BuildTeacherCommand(teacherID uuid.UUID, name string, occurredAt time.Time) Command {
	return Command{
		BorrowerKind: library.BorrowerTeacher,
		BorrowerID:   teacherID,
		Name:         name,
		OccurredAt:   core.ToOccurredAt(occurredAt),
	}
}
