package openclassgroup_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/features/command/openclassgroup"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_Decide_Success(t *testing.T) {
	// arrange
	command := openclassgroup.BuildCommand(GivenUniqueID(t), " 6A ", FakeClockStart)

	// act
	result := openclassgroup.Decide(false, command)

	// assert
	require.NoError(t, result.HasError())
	event, ok := result.Event.(core.ClassGroupOpened)
	require.True(t, ok, "event should be ClassGroupOpened")
	assert.Equal(t, "6A", event.Name)
}

func Test_Decide_Idempotent_WhenClassGroupExists(t *testing.T) {
	// act
	result := openclassgroup.Decide(true, openclassgroup.BuildCommand(GivenUniqueID(t), "6A", FakeClockStart))

	// assert
	assert.True(t, result.IsIdempotent())
}

func Test_Decide_Error(t *testing.T) {
	testCases := []struct {
		name         string
		classGroupID uuid.UUID
		groupName    string
		failureInfo  string
	}{
		{name: "missing id", classGroupID: uuid.Nil, groupName: "6A", failureInfo: "class group id is required"},
		{name: "blank name", classGroupID: uuid.New(), groupName: "  ", failureInfo: core.FailureNameRequired},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := openclassgroup.Decide(false, openclassgroup.BuildCommand(tc.classGroupID, tc.groupName, FakeClockStart))

			// assert
			assert.ErrorIs(t, result.HasError(), library.ErrValidationFailed)
			assert.Equal(t, tc.failureInfo, result.Event.(core.OpeningClassGroupFailed).FailureInfo)
		})
	}
}
