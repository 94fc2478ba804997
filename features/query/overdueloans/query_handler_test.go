package overdueloans_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/features/query/overdueloans"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_QueryHandler_Handle(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := overdueloans.NewQueryHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 3, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			teacher := GivenTeacher(t, ctx, store, FakeClockStart)
			late := GivenActiveLoan(t, ctx, store, book.ID, library.StudentRef(student.ID), FakeClockStart)
			dueSoon := GivenActiveLoan(t, ctx, store, book.ID, library.TeacherRef(teacher.ID), FakeClockStart.Add(8*day))
			_ = GivenActiveLoan(t, ctx, store, book.ID, library.TeacherRef(teacher.ID), FakeClockStart.Add(15*day))

			// act
			result, err := handler.Handle(ctx, overdueloans.BuildQuery(FakeClockStart.Add(20*day), 3*day))

			// assert
			require.NoError(t, err)
			require.Len(t, result.Overdue, 1)
			assert.Equal(t, late.ID, result.Overdue[0].LoanID)
			assert.Equal(t, library.StudentRef(student.ID), result.Overdue[0].Borrower)
			require.Len(t, result.DueSoon, 1)
			assert.Equal(t, dueSoon.ID, result.DueSoon[0].LoanID)
		})
	}
}
