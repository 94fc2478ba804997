package registerborrower_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/features/command/registerborrower"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_Decide_Success(t *testing.T) {
	classGroupID := GivenUniqueID(t)

	testCases := []struct {
		name    string
		command registerborrower.Command
		state   registerborrower.State
	}{
		{
			name:    "student in a class group",
			command: registerborrower.BuildStudentCommand(GivenUniqueID(t), "Ana Souza", "R-1", &classGroupID, FakeClockStart),
			state:   registerborrower.State{ClassGroupFound: true},
		},
		{
			name:    "student without class group",
			command: registerborrower.BuildStudentCommand(GivenUniqueID(t), "Ana Souza", "R-2", nil, FakeClockStart),
		},
		{
			name:    "teacher",
			command: registerborrower.BuildTeacherCommand(GivenUniqueID(t), "Carlos Lima", FakeClockStart),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := registerborrower.Decide(tc.state, tc.command)

			// assert
			require.NoError(t, result.HasError())
			event, ok := result.Event.(core.BorrowerRegistered)
			require.True(t, ok, "event should be BorrowerRegistered")
			assert.Equal(t, string(tc.command.BorrowerKind), event.BorrowerKind)
			assert.Equal(t, tc.command.BorrowerID.String(), event.BorrowerID)
		})
	}
}

func Test_Decide_Idempotent_WhenRegisteredAlready(t *testing.T) {
	// arrange
	command := registerborrower.BuildTeacherCommand(GivenUniqueID(t), "Carlos Lima", FakeClockStart)

	// act
	result := registerborrower.Decide(registerborrower.State{BorrowerExists: true}, command)

	// assert
	assert.True(t, result.IsIdempotent())
}

func Test_Decide_Error(t *testing.T) {
	classGroupID := GivenUniqueID(t)
	unknownKind := registerborrower.BuildTeacherCommand(GivenUniqueID(t), "Carlos Lima", FakeClockStart)
	unknownKind.BorrowerKind = library.BorrowerKind("janitor")

	testCases := []struct {
		name        string
		command     registerborrower.Command
		failureInfo string
	}{
		{
			name:        "missing id",
			command:     registerborrower.BuildTeacherCommand(uuid.Nil, "Carlos Lima", FakeClockStart),
			failureInfo: "borrower id is required",
		},
		{
			name:        "unknown kind",
			command:     unknownKind,
			failureInfo: core.FailureInvalidBorrowerKind,
		},
		{
			name:        "blank name",
			command:     registerborrower.BuildTeacherCommand(GivenUniqueID(t), " ", FakeClockStart),
			failureInfo: core.FailureNameRequired,
		},
		{
			name:        "student without registration number",
			command:     registerborrower.BuildStudentCommand(GivenUniqueID(t), "Ana Souza", "", nil, FakeClockStart),
			failureInfo: "registration number is required",
		},
		{
			name:        "student in an unknown class group",
			command:     registerborrower.BuildStudentCommand(GivenUniqueID(t), "Ana Souza", "R-3", &classGroupID, FakeClockStart),
			failureInfo: core.FailureClassGroupNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := registerborrower.Decide(registerborrower.State{}, tc.command)

			// assert
			assert.ErrorIs(t, result.HasError(), library.ErrValidationFailed)
			assert.Equal(t, tc.failureInfo, result.Event.(core.RegisteringBorrowerFailed).FailureInfo)
		})
	}
}
