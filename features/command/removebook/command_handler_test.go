package removebook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/features/command/removebook"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := removebook.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 2, FakeClockStart)

			// act
			_, result, err := handler.Handle(ctx, removebook.BuildCommand(book.ID, FakeClockStart))

			// assert
			require.NoError(t, err, "Should successfully remove the book")
			assert.False(t, result.Idempotent)
			assert.True(t, GetBook(t, ctx, store, book.ID).IsDeleted())

			listed, err := store.ListBooks(ctx, false)
			require.NoError(t, err)
			assert.Empty(t, listed, "removed books should not be listed")
		})
	}
}

func Test_CommandHandler_Handle_Idempotent_WhenRemovedTwice(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := removebook.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 2, FakeClockStart)
			_, _, err := handler.Handle(ctx, removebook.BuildCommand(book.ID, FakeClockStart))
			require.NoError(t, err, "Should successfully remove the book the first time")

			// act
			_, result, err := handler.Handle(ctx, removebook.BuildCommand(book.ID, FakeClockStart))

			// assert
			require.NoError(t, err)
			assert.True(t, result.Idempotent)
		})
	}
}

func Test_CommandHandler_Handle_Error_WhileLoansAreActive(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := removebook.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 2, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			_ = GivenActiveLoan(t, ctx, store, book.ID, library.StudentRef(student.ID), FakeClockStart)

			// act
			_, _, err := handler.Handle(ctx, removebook.BuildCommand(book.ID, FakeClockStart))

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)
			assert.False(t, GetBook(t, ctx, store, book.ID).IsDeleted())
		})
	}
}
