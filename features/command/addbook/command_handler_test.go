package addbook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/features/command/addbook"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := addbook.NewCommandHandler(store)
			shelfLife := 4
			details := addbook.Details{
				Title:           "Dom Casmurro",
				Author:          "Machado de Assis",
				Publisher:       "Garnier",
				Edition:         "2nd",
				PublicationYear: 1899,
				ShelfLifeYears:  &shelfLife,
				Category:        "literature",
				Grade:           "9",
			}
			command := addbook.BuildCommand(GivenUniqueID(t), details, 3, FakeClockStart)

			// act
			book, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err, "Should successfully add the book")
			assert.False(t, result.Idempotent)
			assert.Equal(t, 3, book.AvailableCopies)

			stored := GetBook(t, ctx, store, command.BookID)
			assert.Equal(t, "Dom Casmurro", stored.Title)
			assert.Equal(t, "Garnier", stored.Publisher)
			assert.Equal(t, 3, stored.TotalCopies)
			assert.Equal(t, 3, stored.AvailableCopies)
			require.NotNil(t, stored.ShelfLifeYears)
			assert.Equal(t, 4, *stored.ShelfLifeYears)
			assert.False(t, stored.IsDeleted())
		})
	}
}

func Test_CommandHandler_Handle_Idempotent_WhenAddedTwice(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := addbook.NewCommandHandler(store)
			command := addbook.BuildCommand(GivenUniqueID(t), addbook.Details{Title: "Vidas Secas"}, 2, FakeClockStart)
			_, _, err := handler.Handle(ctx, command)
			require.NoError(t, err, "Should successfully add the book the first time")

			// act
			_, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err)
			assert.True(t, result.Idempotent)
		})
	}
}

func Test_CommandHandler_Handle_Error_ValidationFailed(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := addbook.NewCommandHandler(store)
			command := addbook.BuildCommand(GivenUniqueID(t), addbook.Details{Title: ""}, 2, FakeClockStart)

			// act
			_, _, err := handler.Handle(ctx, command)

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)
			_, getErr := store.GetBook(ctx, command.BookID)
			assert.ErrorIs(t, getErr, library.ErrNotFound)
		})
	}
}
