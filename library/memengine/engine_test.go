package memengine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/library/memengine"
	. "github.com/schoollibrary/circulation/testutil/librarytest"
)

func newEngine(t *testing.T, options ...Option) *Engine {
	engine, err := NewEngine(options...)
	require.NoError(t, err, "error creating the engine in test setup")

	return engine
}

func Test_Engine_WithinTx_UndoesAllWrites_WhenFnFails(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)
	failure := errors.New("boom")

	// arrange
	book := GivenBook(t, ctx, engine, 2, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	loan := FixtureActiveLoan(GivenUniqueID(t), book.ID, library.StudentRef(student.ID), FakeClockStart)
	recordID := GivenUniqueID(t)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		if _, err := tx.InsertLoan(ctx, loan); err != nil {
			return err
		}

		if err := tx.SetAvailableCopies(ctx, book.ID, 1); err != nil {
			return err
		}

		if err := tx.AppendLifecycleRecord(ctx, library.LifecycleRecord{ID: recordID, LoanID: &loan.ID}); err != nil {
			return err
		}

		return failure
	})

	// assert
	assert.ErrorIs(t, err, failure)
	_, getErr := engine.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, getErr, library.ErrNotFound)
	assert.Equal(t, 2, GetBook(t, ctx, engine, book.ID).AvailableCopies)
	records, err := engine.ListLifecycleRecords(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func Test_Engine_LockBook_SerializesConcurrentCheckouts(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 3, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	workers := 20
	results := make(chan error, workers)
	var wg sync.WaitGroup

	// act
	for i := 0; i < workers; i++ {
		loanID := GivenUniqueID(t)
		wg.Add(1)

		go func() {
			defer wg.Done()

			results <- engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
				locked, err := tx.LockBook(ctx, book.ID)
				if err != nil {
					return err
				}

				active, err := tx.CountActiveLoans(ctx, book.ID)
				if err != nil {
					return err
				}

				if locked.TotalCopies-active <= 0 {
					return library.ErrOutOfStock
				}

				loan := FixtureActiveLoan(loanID, book.ID, library.StudentRef(student.ID), FakeClockStart)
				if _, err = tx.InsertLoan(ctx, loan); err != nil {
					return err
				}

				return tx.SetAvailableCopies(ctx, book.ID, locked.TotalCopies-active-1)
			})
		}()
	}

	wg.Wait()
	close(results)

	// assert
	succeeded, outOfStock := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}

		if errors.Is(err, library.ErrOutOfStock) {
			outOfStock++
		}
	}

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, workers-3, outOfStock)
	assert.Equal(t, 0, GetBook(t, ctx, engine, book.ID).AvailableCopies)
}

func Test_Engine_LockBook_ReturnsUnavailable_WhenLockIsNotGrantedInTime(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t, WithTxTimeout(50*time.Millisecond))

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
			_, err := tx.LockBook(ctx, book.ID)
			close(locked)
			<-release

			return err
		})
	}()
	<-locked

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		_, err := tx.LockBook(ctx, book.ID)
		return err
	})
	close(release)
	<-done

	// assert
	assert.ErrorIs(t, err, library.ErrUnavailable)
}

func Test_Engine_LockBook_IsReentrantWithinOneUnitOfWork(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t, WithTxTimeout(time.Second))

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		if _, err := tx.LockBook(ctx, book.ID); err != nil {
			return err
		}

		_, err := tx.LockBook(ctx, book.ID)

		return err
	})

	// assert
	assert.NoError(t, err)
}

func Test_Engine_InsertLoan_RejectsUnknownBorrower(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	loan := FixtureActiveLoan(GivenUniqueID(t), book.ID, library.TeacherRef(GivenUniqueID(t)), FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		_, err := tx.InsertLoan(ctx, loan)
		return err
	})

	// assert
	assert.ErrorIs(t, err, library.ErrValidationFailed)
}

func Test_Engine_UpdateLoan_WithExpectedStatus_FailsOnReturnedLoan(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	teacher := GivenTeacher(t, ctx, engine, FakeClockStart)
	loan := GivenActiveLoan(t, ctx, engine, book.ID, library.TeacherRef(teacher.ID), FakeClockStart)
	returned := library.LoanReturned
	returnDate := FakeClockStart.Add(time.Hour)
	update := library.LoanUpdate{Status: &returned, ReturnDate: &returnDate, ExpectedStatus: library.LoanActive}

	returnLoan := func() error {
		return engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
			_, err := tx.UpdateLoan(ctx, loan.ID, update)
			return err
		})
	}
	require.NoError(t, returnLoan())

	// act
	err := returnLoan()

	// assert
	assert.ErrorIs(t, err, library.ErrConcurrencyConflict)
}

func Test_Engine_SetAvailableCopies_RejectsCounterAboveTotal(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 2, FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.SetAvailableCopies(ctx, book.ID, 3)
	})

	// assert
	assert.ErrorIs(t, err, library.ErrConcurrencyConflict)
}

func Test_Engine_InsertStudent_RejectsDuplicateRegistrationNumber(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	duplicate := student
	duplicate.ID = GivenUniqueID(t)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.InsertStudent(ctx, duplicate)
	})

	// assert
	assert.ErrorIs(t, err, library.ErrValidationFailed)
}

func Test_Engine_RecordNotification_StoresOneNotificationPerLoanKindAndDay(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	loan := GivenActiveLoan(t, ctx, engine, book.ID, library.StudentRef(student.ID), FakeClockStart)
	notification := func(kind library.NotificationKind, at time.Time) library.Notification {
		return library.Notification{ID: GivenUniqueID(t), LoanID: loan.ID, Borrower: loan.Borrower(), Kind: kind, CreatedAt: at}
	}

	// act
	first, _ := engine.RecordNotification(ctx, notification(library.NotificationOverdue, FakeClockStart))
	sameDay, _ := engine.RecordNotification(ctx, notification(library.NotificationOverdue, FakeClockStart.Add(time.Hour)))
	otherKind, _ := engine.RecordNotification(ctx, notification(library.NotificationDueSoon, FakeClockStart))

	// assert
	assert.True(t, first)
	assert.False(t, sameDay)
	assert.True(t, otherKind)
}

func Test_Engine_Reports(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := newEngine(t)

	// arrange
	classGroup := GivenClassGroup(t, ctx, engine, "5A")
	popular := GivenBook(t, ctx, engine, 5, FakeClockStart)
	quiet := GivenBook(t, ctx, engine, 5, FakeClockStart)
	reader := GivenStudent(t, ctx, engine, &classGroup.ID, FakeClockStart)
	teacher := GivenTeacher(t, ctx, engine, FakeClockStart)
	_ = GivenActiveLoan(t, ctx, engine, popular.ID, library.StudentRef(reader.ID), FakeClockStart)
	_ = GivenActiveLoan(t, ctx, engine, popular.ID, library.StudentRef(reader.ID), FakeClockStart.Add(time.Hour))
	_ = GivenActiveLoan(t, ctx, engine, quiet.ID, library.TeacherRef(teacher.ID), FakeClockStart.Add(20*24*time.Hour))
	now := FakeClockStart.Add(21 * 24 * time.Hour)

	// act
	totals, _ := engine.Totals(ctx, now)
	books, _ := engine.MostBorrowedBooks(ctx, 1)
	groups, _ := engine.LoansPerClassGroup(ctx)
	students, _ := engine.StudentsWithMostLoans(ctx, 10)

	// assert
	assert.Equal(t, library.Totals{Books: 2, Students: 1, Teachers: 1, Loans: 3, ActiveLoans: 3, OverdueLoans: 2}, totals)
	require.Len(t, books, 1)
	assert.Equal(t, popular.ID, books[0].BookID)
	assert.Equal(t, 2, books[0].Loans)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Loans)
	require.Len(t, students, 1)
	assert.Equal(t, reader.ID, students[0].StudentID)
}
