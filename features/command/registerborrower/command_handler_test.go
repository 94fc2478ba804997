package registerborrower_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/features/command/registerborrower"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_CommandHandler_Handle_Success_Student(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := registerborrower.NewCommandHandler(store)

			// arrange
			classGroup := GivenClassGroup(t, ctx, store, "7B")
			command := registerborrower.BuildStudentCommand(GivenUniqueID(t), "Ana Souza", "R-2025-001", &classGroup.ID, FakeClockStart)

			// act
			borrower, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err, "Should successfully register the student")
			assert.False(t, result.Idempotent)
			assert.Equal(t, library.BorrowerStudent, borrower.Kind)

			students, err := store.ListStudents(ctx)
			require.NoError(t, err)
			require.Len(t, students, 1)
			assert.Equal(t, "R-2025-001", students[0].RegistrationNumber)
			require.NotNil(t, students[0].ClassGroupID)
			assert.Equal(t, classGroup.ID, *students[0].ClassGroupID)
		})
	}
}

func Test_CommandHandler_Handle_Idempotent_Teacher(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := registerborrower.NewCommandHandler(store)
			command := registerborrower.BuildTeacherCommand(GivenUniqueID(t), "Carlos Lima", FakeClockStart)
			_, _, err := handler.Handle(ctx, command)
			require.NoError(t, err, "Should successfully register the teacher the first time")

			// act
			borrower, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err)
			assert.True(t, result.Idempotent)
			assert.Equal(t, "Carlos Lima", borrower.Name)

			teachers, err := store.ListTeachers(ctx)
			require.NoError(t, err)
			assert.Len(t, teachers, 1)
		})
	}
}

func Test_CommandHandler_Handle_Error_UnknownClassGroup(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := registerborrower.NewCommandHandler(store)
			classGroupID := GivenUniqueID(t)
			command := registerborrower.BuildStudentCommand(GivenUniqueID(t), "Ana Souza", "R-2025-002", &classGroupID, FakeClockStart)

			// act
			_, _, err := handler.Handle(ctx, command)

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)

			students, err := store.ListStudents(ctx)
			require.NoError(t, err)
			assert.Empty(t, students)
		})
	}
}
