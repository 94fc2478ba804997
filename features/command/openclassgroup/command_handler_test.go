package openclassgroup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/features/command/openclassgroup"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := openclassgroup.NewCommandHandler(store)
			command := openclassgroup.BuildCommand(GivenUniqueID(t), "6A", FakeClockStart)

			// act
			classGroup, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err)
			assert.False(t, result.Idempotent)
			assert.Equal(t, command.ClassGroupID, classGroup.ID)

			classGroups, err := store.ListClassGroups(ctx)
			require.NoError(t, err)
			assert.Equal(t, []library.ClassGroup{classGroup}, classGroups)
		})
	}
}

func Test_CommandHandler_Handle_Idempotent(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := openclassgroup.NewCommandHandler(store)
			command := openclassgroup.BuildCommand(GivenUniqueID(t), "6A", FakeClockStart)
			_, _, err := handler.Handle(ctx, command)
			require.NoError(t, err)

			// act
			_, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err)
			assert.True(t, result.Idempotent)
		})
	}
}

func Test_CommandHandler_Handle_Error_BlankName(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := openclassgroup.NewCommandHandler(store)

			// act
			_, _, err := handler.Handle(ctx, openclassgroup.BuildCommand(GivenUniqueID(t), "", FakeClockStart))

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)
		})
	}
}
