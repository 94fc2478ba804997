package createloan_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/features/command/createloan"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
	"github.com/schoollibrary/circulation/testutil/testdoubles"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 2, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			command := createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", student.ID, FakeClockStart.Add(time.Hour))

			// act
			loan, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err, "Should successfully create the loan")
			assert.False(t, result.Idempotent)
			assert.Equal(t, 1, result.RetryAttempts)
			assert.Equal(t, command.LoanID, loan.ID)
			assert.Equal(t, library.LoanActive, loan.Status)
			assert.Nil(t, loan.ReturnDate)
			assert.Equal(t, library.StudentRef(student.ID), loan.Borrower())
			assert.Nil(t, loan.TeacherID)
			assert.WithinDuration(t, command.OccurredAt.Add(library.LoanPeriod), loan.DueDate, time.Millisecond)
			require.NotNil(t, loan.BookTitle)
			assert.Equal(t, book.Title, *loan.BookTitle)
			require.NotNil(t, loan.BorrowerName)
			assert.Equal(t, student.Name, *loan.BorrowerName)
			assert.Equal(t, 1, GetBook(t, ctx, store, book.ID).AvailableCopies)
			assert.Equal(t, []string{core.LoanCreatedEventType}, GetLifecycleEventTypes(t, ctx, store, loan.ID))
		})
	}
}

func Test_CommandHandler_Handle_Success_ForTeacher(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			teacher := GivenTeacher(t, ctx, store, FakeClockStart)
			command := createloan.BuildCommand(GivenUniqueID(t), book.ID, "teacher", teacher.ID, FakeClockStart)

			// act
			loan, _, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err)
			assert.Equal(t, library.TeacherRef(teacher.ID), loan.Borrower())
			assert.Nil(t, loan.StudentID)
			assert.Equal(t, 0, GetBook(t, ctx, store, book.ID).AvailableCopies)
		})
	}
}

func Test_CommandHandler_Handle_Error_OutOfStock_OnLastCopyTakenAlready(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			first := GivenStudent(t, ctx, store, nil, FakeClockStart)
			second := GivenStudent(t, ctx, store, nil, FakeClockStart)
			_, _, err := handler.Handle(ctx, createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", first.ID, FakeClockStart))
			require.NoError(t, err, "Should successfully lend the only copy")

			command := createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", second.ID, FakeClockStart.Add(time.Hour))

			// act
			_, result, err := handler.Handle(ctx, command)

			// assert
			assert.ErrorIs(t, err, library.ErrOutOfStock)
			assert.False(t, result.Idempotent)
			assert.Equal(t, 1, result.RetryAttempts, "business rejections are not retried")
			_, getErr := store.GetLoan(ctx, command.LoanID)
			assert.ErrorIs(t, getErr, library.ErrNotFound, "no loan should be created")
			assert.Equal(t, 0, GetBook(t, ctx, store, book.ID).AvailableCopies)
			assert.Equal(t, []string{core.CreatingLoanFailedEventType}, GetLifecycleEventTypes(t, ctx, store, command.LoanID))
		})
	}
}

func Test_CommandHandler_Handle_Error_NotFound(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)

			// act
			_, _, unknownBookErr := handler.Handle(ctx,
				createloan.BuildCommand(GivenUniqueID(t), GivenUniqueID(t), "student", student.ID, FakeClockStart))
			_, _, unknownBorrowerErr := handler.Handle(ctx,
				createloan.BuildCommand(GivenUniqueID(t), book.ID, "teacher", student.ID, FakeClockStart))

			// assert
			assert.ErrorIs(t, unknownBookErr, library.ErrNotFound)
			assert.ErrorContains(t, unknownBookErr, core.FailureBookNotFound)
			assert.ErrorIs(t, unknownBorrowerErr, library.ErrNotFound)
			assert.ErrorContains(t, unknownBorrowerErr, core.FailureBorrowerNotFound)
			assert.Equal(t, 1, GetBook(t, ctx, store, book.ID).AvailableCopies)
		})
	}
}

func Test_CommandHandler_Handle_Error_NotFound_WhenBookWasRemoved(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			err := store.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
				return tx.SoftDeleteBook(ctx, book.ID, FakeClockStart)
			})
			require.NoError(t, err, "error in arranging test data")

			// act
			_, _, err = handler.Handle(ctx, createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", student.ID, FakeClockStart))

			// assert
			assert.ErrorIs(t, err, library.ErrNotFound)
			assert.ErrorContains(t, err, core.FailureBookRemoved)
		})
	}
}

func Test_CommandHandler_Handle_Error_ValidationFailed(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 1, FakeClockStart)
			command := createloan.BuildCommand(GivenUniqueID(t), book.ID, "parent", GivenUniqueID(t), FakeClockStart)

			// act
			_, _, err := handler.Handle(ctx, command)

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)
			assert.Equal(t, 1, GetBook(t, ctx, store, book.ID).AvailableCopies)
		})
	}
}

func Test_CommandHandler_Handle_Idempotent_WhenLoanIDIsRepeated(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 3, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			command := createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", student.ID, FakeClockStart)
			created, _, err := handler.Handle(ctx, command)
			require.NoError(t, err, "Should successfully create the loan the first time")

			// act
			repeated, result, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err)
			assert.True(t, result.Idempotent)
			assert.Equal(t, created.ID, repeated.ID)
			assert.Equal(t, 2, GetBook(t, ctx, store, book.ID).AvailableCopies, "the copy should be taken only once")
			assert.Equal(t, []string{core.LoanCreatedEventType}, GetLifecycleEventTypes(t, ctx, store, command.LoanID))
		})
	}
}

func Test_CommandHandler_Handle_Error_ValidationFailed_WhenLoanIDIsReusedForAnotherBook(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			lent := GivenBook(t, ctx, store, 2, FakeClockStart)
			soldOut := GivenBook(t, ctx, store, 1, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			other := GivenStudent(t, ctx, store, nil, FakeClockStart)
			_, _, err := handler.Handle(ctx, createloan.BuildCommand(GivenUniqueID(t), soldOut.ID, "student", other.ID, FakeClockStart))
			require.NoError(t, err, "Should successfully lend the only copy")

			loanID := GivenUniqueID(t)
			_, _, err = handler.Handle(ctx, createloan.BuildCommand(loanID, lent.ID, "student", student.ID, FakeClockStart))
			require.NoError(t, err, "Should successfully create the first loan")

			command := createloan.BuildCommand(loanID, soldOut.ID, "student", student.ID, FakeClockStart.Add(time.Hour))

			// act
			loan, result, err := handler.Handle(ctx, command)

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)
			assert.ErrorContains(t, err, "loan id already used for another checkout")
			assert.False(t, result.Idempotent)
			assert.Equal(t, uuid.Nil, loan.ID, "the stored loan must not be handed out for another book")
			assert.Equal(t, lent.ID, GetLoan(t, ctx, store, loanID).BookID)
			assert.Equal(t, 1, GetBook(t, ctx, store, lent.ID).AvailableCopies)
			assert.Equal(t, 0, GetBook(t, ctx, store, soldOut.ID).AvailableCopies)
			assert.Equal(
				t,
				[]string{core.LoanCreatedEventType, core.CreatingLoanFailedEventType},
				GetLifecycleEventTypes(t, ctx, store, loanID),
			)
		})
	}
}

func Test_CommandHandler_Handle_Error_ValidationFailed_WhenLoanIDIsReusedForAnotherBorrower(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			handler := createloan.NewCommandHandler(store)

			// arrange
			book := GivenBook(t, ctx, store, 3, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			teacher := GivenTeacher(t, ctx, store, FakeClockStart)
			loanID := GivenUniqueID(t)
			_, _, err := handler.Handle(ctx, createloan.BuildCommand(loanID, book.ID, "student", student.ID, FakeClockStart))
			require.NoError(t, err, "Should successfully create the first loan")

			// act
			_, _, err = handler.Handle(ctx, createloan.BuildCommand(loanID, book.ID, "teacher", teacher.ID, FakeClockStart))

			// assert
			assert.ErrorIs(t, err, library.ErrValidationFailed)
			assert.Equal(t, library.StudentRef(student.ID), GetLoan(t, ctx, store, loanID).Borrower())
			assert.Equal(t, 2, GetBook(t, ctx, store, book.ID).AvailableCopies)
		})
	}
}

func Test_CommandHandler_Handle_Success_WhenBorrowerNameLookupFails(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			loggerSpy := testdoubles.NewContextualLoggerSpy(true)
			handler := createloan.NewCommandHandler(
				nameLookupFailingStore{UnitOfWork: store},
				createloan.WithContextualLogger(loggerSpy),
			)

			// arrange
			book := GivenBook(t, ctx, store, 2, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			command := createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", student.ID, FakeClockStart)

			// act
			loan, _, err := handler.Handle(ctx, command)

			// assert
			require.NoError(t, err, "a failed name lookup must not fail the checkout")
			assert.Nil(t, loan.BorrowerName)
			assert.Nil(t, GetLoan(t, ctx, store, command.LoanID).BorrowerName)
			assert.Equal(t, 1, GetBook(t, ctx, store, book.ID).AvailableCopies)
			assert.True(t, loggerSpy.HasWarnLog(shell.LogMsgSnapshotLookupFailed))
		})
	}
}

// nameLookupFailingStore hands out transactions that behave like an aborted Postgres transaction
// once the borrower name lookup has failed: every later write in the same transaction fails.
type nameLookupFailingStore struct {
	library.UnitOfWork
}

func (s nameLookupFailingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx library.Tx) error) error {
	return s.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return fn(ctx, &nameLookupFailingTx{Tx: tx})
	})
}

type nameLookupFailingTx struct {
	library.Tx
	aborted bool
}

func (tx *nameLookupFailingTx) GetBorrowerName(context.Context, library.BorrowerRef) (string, error) {
	tx.aborted = true

	return "", errors.New("canceling statement due to statement timeout")
}

func (tx *nameLookupFailingTx) InsertLoan(ctx context.Context, loan library.Loan) (library.Loan, error) {
	if tx.aborted {
		return library.Loan{}, errors.New("current transaction is aborted")
	}

	return tx.Tx.InsertLoan(ctx, loan)
}

func Test_CommandHandler_Handle_RepairsDriftedCounter(t *testing.T) {
	for name, store := range GivenStores(t) {
		t.Run(name, func(t *testing.T) {
			// setup
			ctx := context.Background()
			metricsSpy := testdoubles.NewMetricsCollectorSpy(true)
			loggerSpy := testdoubles.NewContextualLoggerSpy(true)
			handler := createloan.NewCommandHandler(
				store,
				createloan.WithMetrics(metricsSpy),
				createloan.WithContextualLogger(loggerSpy),
			)

			// arrange
			book := GivenBook(t, ctx, store, 3, FakeClockStart)
			student := GivenStudent(t, ctx, store, nil, FakeClockStart)
			GivenAvailableCopiesDrifted(t, ctx, store, book.ID, 1)

			// act
			_, _, err := handler.Handle(ctx, createloan.BuildCommand(GivenUniqueID(t), book.ID, "student", student.ID, FakeClockStart))

			// assert
			require.NoError(t, err)
			assert.Equal(t, 2, GetBook(t, ctx, store, book.ID).AvailableCopies, "counter should be derived from the active loans")
			assert.Equal(t, 1, metricsSpy.CountCounterRecords(shell.AvailabilityDriftRepairedMetric, nil))
			assert.True(t, loggerSpy.HasWarnLog(shell.LogMsgAvailabilityDriftRepaired))
		})
	}
}

func Test_CommandHandler_Handle_SerializesCheckoutsOfTheLastCopies(t *testing.T) {
	// setup
	ctx := context.Background()
	store := NewMemoryStore(t)
	handler := createloan.NewCommandHandler(store)

	// arrange
	book := GivenBook(t, ctx, store, 2, FakeClockStart)
	borrowers := 8
	students := make([]uuid.UUID, borrowers)
	for i := range students {
		students[i] = GivenStudent(t, ctx, store, nil, FakeClockStart).ID
	}

	errs := make(chan error, borrowers)
	var wg sync.WaitGroup

	// act
	for _, studentID := range students {
		loanID := GivenUniqueID(t)
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _, err := handler.Handle(ctx, createloan.BuildCommand(loanID, book.ID, "student", studentID, FakeClockStart))
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	// assert
	succeeded, outOfStock := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, library.ErrOutOfStock):
			outOfStock++
		}
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, borrowers-2, outOfStock)
	assert.Equal(t, 0, GetBook(t, ctx, store, book.ID).AvailableCopies)
}
