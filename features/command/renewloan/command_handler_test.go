package renewloan_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/features/command/renewloan"
	"github.com/schoollibrary/circulation/features/command/returnloan"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_CommandHandler_Handle_Success_WhenOverdue(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := renewloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			loan := GivenActiveLoan(t, ctx, store, book.ID, library.StudentRef(student.ID), FakeClockStart)
			renewedAt := FakeClockStart.Add(20 * day)

			// act
			renewed, result, err := handler.Handle(ctx, renewloan.BuildCommand(loan.ID, renewedAt))

			// assert
			require.NoError(t, err, "Should successfully renew the overdue loan")
			assert.False(t, result.Idempotent)
			assert.WithinDuration(t, renewedAt.Add(library.LoanPeriod), renewed.DueDate, time.Millisecond)
			assert.Equal(t, 1, renewed.RenewalCount)
			assert.Equal(t, library.LoanActive, renewed.Status)
			assert.Equal(t, 0, GetBook(t, ctx, store, book.ID).AvailableCopies, "availability should not change")
			assert.Equal(t, []string{core.LoanRenewedEventType}, GetLifecycleEventTypes(t, ctx, store, loan.ID))
		})
	}
}

func Test_CommandHandler_Handle_Error_NotEligible_WhenDueInTenDays(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := renewloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			teacher := GivenTeacher(t, ctx, store, FakeClockStart)
			loan := GivenActiveLoan(t, ctx, store, book.ID, library.TeacherRef(teacher.ID), FakeClockStart)

			// act
			_, _, err := handler.Handle(ctx, renewloan.BuildCommand(loan.ID, FakeClockStart.Add(4*day)))

			// assert
			assert.ErrorIs(t, err, library.ErrNotEligible)
			assert.WithinDuration(t, loan.DueDate, GetLoan(t, ctx, store, loan.ID).DueDate, time.Millisecond)
			assert.Equal(t, []string{core.RenewingLoanFailedEventType}, GetLifecycleEventTypes(t, ctx, store, loan.ID))
		})
	}
}

func Test_CommandHandler_Handle_Error_NotEligible_WhenReturned(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := renewloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			loan := GivenActiveLoan(t, ctx, store, book.ID, library.StudentRef(student.ID), FakeClockStart)
			_, _, err := returnloan.NewCommandHandler(store).Handle(ctx, returnloan.BuildCommand(loan.ID, FakeClockStart.Add(13*day)))
			require.NoError(t, err, "Should successfully return the loan")

			// act
			_, _, err = handler.Handle(ctx, renewloan.BuildCommand(loan.ID, FakeClockStart.Add(13*day)))

			// assert
			assert.ErrorIs(t, err, library.ErrNotEligible)
			assert.ErrorContains(t, err, core.FailureLoanReturned)
		})
	}
}

func Test_CommandHandler_Handle_Error_NotFound(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := renewloan.NewCommandHandler(store)

			// act
			_, _, err := handler.Handle(ctx, renewloan.BuildCommand(GivenUniqueID(t), FakeClockStart))

			// assert
			assert.ErrorIs(t, err, library.ErrNotFound)
		})
	}
}
