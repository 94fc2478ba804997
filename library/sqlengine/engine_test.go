package sqlengine_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/library/sqlengine"
	. "github.com/schoollibrary/circulation/testutil/librarytest"
	"github.com/schoollibrary/circulation/testutil/testdoubles"
)

func Test_Engine_GetBook_ReturnsWhatWasInserted(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 3, FakeClockStart)

	// act
	stored, err := engine.GetBook(ctx, book.ID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, book.ID, stored.ID)
	assert.Equal(t, book.Title, stored.Title)
	assert.Equal(t, 3, stored.TotalCopies)
	assert.Equal(t, 3, stored.AvailableCopies)
	assert.Equal(t, book.ShelfLifeYears, stored.ShelfLifeYears)
	assert.True(t, book.CreatedAt.Equal(stored.CreatedAt))
	assert.False(t, stored.IsDeleted())
}

func Test_Engine_GetBook_ReturnsNotFound_ForUnknownBook(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// act
	_, err := engine.GetBook(ctx, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func Test_Engine_SetAvailableCopies_RejectsCounterAboveTotal(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 2, FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.SetAvailableCopies(ctx, book.ID, 3)
	})

	// assert
	assert.ErrorIs(t, err, library.ErrConcurrencyConflict)
	assert.Equal(t, 2, GetBook(t, ctx, engine, book.ID).AvailableCopies)
}

func Test_Engine_SoftDeleteBook_HidesBookFromListing(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	kept := GivenBook(t, ctx, engine, 1, FakeClockStart)
	removed := GivenBook(t, ctx, engine, 1, FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.SoftDeleteBook(ctx, removed.ID, FakeClockStart.Add(time.Hour))
	})

	// assert
	require.NoError(t, err)
	books, err := engine.ListBooks(ctx, false)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, kept.ID, books[0].ID)
	assert.True(t, GetBook(t, ctx, engine, removed.ID).IsDeleted())
}

func Test_Engine_InsertLoan_StoresLoanAndCountsItActive(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 2, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)

	// act
	loan := GivenActiveLoan(t, ctx, engine, book.ID, library.StudentRef(student.ID), FakeClockStart)

	// assert
	stored := GetLoan(t, ctx, engine, loan.ID)
	assert.Equal(t, library.LoanActive, stored.Status)
	assert.Equal(t, library.StudentRef(student.ID), stored.Borrower())
	assert.True(t, library.DueDateFrom(FakeClockStart).Equal(stored.DueDate))
	assert.Nil(t, stored.ReturnDate)

	active, err := engine.CountActiveLoans(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, GetBook(t, ctx, engine, book.ID).AvailableCopies)
}

func Test_Engine_InsertLoan_RejectsLoanWithTwoBorrowers(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	teacher := GivenTeacher(t, ctx, engine, FakeClockStart)
	loan := FixtureActiveLoan(GivenUniqueID(t), book.ID, library.StudentRef(student.ID), FakeClockStart)
	loan.TeacherID = &teacher.ID

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
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	teacher := GivenTeacher(t, ctx, engine, FakeClockStart)
	loan := GivenActiveLoan(t, ctx, engine, book.ID, library.TeacherRef(teacher.ID), FakeClockStart)

	returned := library.LoanReturned
	returnDate := FakeClockStart.Add(48 * time.Hour)
	update := library.LoanUpdate{Status: &returned, ReturnDate: &returnDate, ExpectedStatus: library.LoanActive}

	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		_, err := tx.UpdateLoan(ctx, loan.ID, update)
		return err
	})
	require.NoError(t, err)

	// act
	err = engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		_, err := tx.UpdateLoan(ctx, loan.ID, update)
		return err
	})

	// assert
	assert.ErrorIs(t, err, library.ErrConcurrencyConflict)
	stored := GetLoan(t, ctx, engine, loan.ID)
	assert.Equal(t, library.LoanReturned, stored.Status)
	require.NotNil(t, stored.ReturnDate)
	assert.True(t, returnDate.Equal(*stored.ReturnDate))
}

func Test_Engine_WithinTx_RollsBackAllWrites_WhenFnFails(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)
	failure := errors.New("boom")

	// arrange
	book := GivenBook(t, ctx, engine, 2, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	loan := FixtureActiveLoan(GivenUniqueID(t), book.ID, library.StudentRef(student.ID), FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		if _, err := tx.InsertLoan(ctx, loan); err != nil {
			return err
		}

		if err := tx.SetAvailableCopies(ctx, book.ID, 1); err != nil {
			return err
		}

		return failure
	})

	// assert
	assert.ErrorIs(t, err, failure)
	_, getErr := engine.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, getErr, library.ErrNotFound)
	assert.Equal(t, 2, GetBook(t, ctx, engine, book.ID).AvailableCopies)
}

func Test_Engine_WithinTx_NestedCallJoinsTheOpenTransaction(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)
	failure := errors.New("boom")

	// arrange
	book := GivenBook(t, ctx, engine, 2, FakeClockStart)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		nestedErr := tx.(library.UnitOfWork).WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
			return tx.SetAvailableCopies(ctx, book.ID, 0)
		})
		if nestedErr != nil {
			return nestedErr
		}

		return failure
	})

	// assert
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 2, GetBook(t, ctx, engine, book.ID).AvailableCopies)
}

func Test_Engine_ListLoans_AppliesFilter(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 5, FakeClockStart)
	otherBook := GivenBook(t, ctx, engine, 5, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	early := GivenActiveLoan(t, ctx, engine, book.ID, library.StudentRef(student.ID), FakeClockStart)
	late := GivenActiveLoan(t, ctx, engine, book.ID, library.StudentRef(student.ID), FakeClockStart.Add(10*24*time.Hour))
	_ = GivenActiveLoan(t, ctx, engine, otherBook.ID, library.StudentRef(student.ID), FakeClockStart)

	filter := library.BuildLoanFilter().
		ForBook(book.ID).
		WithStatus(library.LoanActive).
		DueBetween(FakeClockStart, FakeClockStart.Add(20*24*time.Hour)).
		Finalize()

	// act
	loans, err := engine.ListLoans(ctx, filter)

	// assert
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, early.ID, loans[0].ID)
	assert.NotEqual(t, late.ID, loans[0].ID)
}

func Test_Engine_RecordNotification_StoresOneNotificationPerLoanKindAndDay(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	student := GivenStudent(t, ctx, engine, nil, FakeClockStart)
	loan := GivenActiveLoan(t, ctx, engine, book.ID, library.StudentRef(student.ID), FakeClockStart)

	notification := func(at time.Time) library.Notification {
		return library.Notification{
			ID:        GivenUniqueID(t),
			LoanID:    loan.ID,
			Borrower:  loan.Borrower(),
			Kind:      library.NotificationOverdue,
			Message:   "overdue",
			CreatedAt: at,
		}
	}
	day := FakeClockStart.Add(20 * 24 * time.Hour)

	// act
	first, firstErr := engine.RecordNotification(ctx, notification(day))
	second, secondErr := engine.RecordNotification(ctx, notification(day.Add(time.Hour)))
	nextDay, nextDayErr := engine.RecordNotification(ctx, notification(day.Add(24*time.Hour)))

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.NoError(t, nextDayErr)
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, nextDay)

	borrower := loan.Borrower()
	notifications, err := engine.ListNotifications(ctx, &borrower, true)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func Test_Engine_MarkNotificationRead(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

	// arrange
	book := GivenBook(t, ctx, engine, 1, FakeClockStart)
	teacher := GivenTeacher(t, ctx, engine, FakeClockStart)
	loan := GivenActiveLoan(t, ctx, engine, book.ID, library.TeacherRef(teacher.ID), FakeClockStart)
	notification := library.Notification{
		ID:        GivenUniqueID(t),
		LoanID:    loan.ID,
		Borrower:  loan.Borrower(),
		Kind:      library.NotificationDueSoon,
		Message:   "due soon",
		CreatedAt: FakeClockStart,
	}
	_, err := engine.RecordNotification(ctx, notification)
	require.NoError(t, err)

	// act
	err = engine.MarkNotificationRead(ctx, notification.ID)

	// assert
	require.NoError(t, err)
	unread, err := engine.ListNotifications(ctx, nil, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
	assert.ErrorIs(t, engine.MarkNotificationRead(ctx, GivenUniqueID(t)), library.ErrNotFound)
}

func Test_Engine_Reports(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)

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
	totals, totalsErr := engine.Totals(ctx, now)
	books, booksErr := engine.MostBorrowedBooks(ctx, 10)
	groups, groupsErr := engine.LoansPerClassGroup(ctx)
	students, studentsErr := engine.StudentsWithMostLoans(ctx, 10)
	dates, datesErr := engine.LoanDatesSince(ctx, FakeClockStart.Add(time.Minute))

	// assert
	require.NoError(t, totalsErr)
	assert.Equal(t, library.Totals{Books: 2, Students: 1, Teachers: 1, Loans: 3, ActiveLoans: 3, OverdueLoans: 2}, totals)

	require.NoError(t, booksErr)
	require.Len(t, books, 2)
	assert.Equal(t, popular.ID, books[0].BookID)
	assert.Equal(t, 2, books[0].Loans)

	require.NoError(t, groupsErr)
	require.Len(t, groups, 1)
	assert.Equal(t, classGroup.ID, groups[0].ClassGroupID)
	assert.Equal(t, 2, groups[0].Loans)

	require.NoError(t, studentsErr)
	require.Len(t, students, 1)
	assert.Equal(t, reader.ID, students[0].StudentID)

	require.NoError(t, datesErr)
	assert.Len(t, dates, 2)
}

func Test_Engine_AppendLifecycleRecord_KeepsAuditTrailOfLoan(t *testing.T) {
	// setup
	ctx := context.Background()
	engine := NewSQLiteEngine(t)
	loanID := GivenUniqueID(t)

	// act
	err := engine.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		for i, eventType := range []string{"LoanCreated", "LoanRenewed"} {
			appendErr := tx.AppendLifecycleRecord(ctx, library.LifecycleRecord{
				ID:          GivenUniqueID(t),
				EventType:   eventType,
				OccurredAt:  FakeClockStart.Add(time.Duration(i) * time.Hour),
				LoanID:      &loanID,
				PayloadJSON: []byte(`{"loanId":"` + loanID.String() + `"}`),
			})
			if appendErr != nil {
				return appendErr
			}
		}

		return nil
	})

	// assert
	require.NoError(t, err)
	records, err := engine.ListLifecycleRecords(ctx, loanID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "LoanCreated", records[0].EventType)
	assert.Equal(t, "LoanRenewed", records[1].EventType)
	assert.JSONEq(t, `{}`, string(records[0].MetadataJSON))
}

func Test_Engine_RecordsOperationMetricsAndSpans(t *testing.T) {
	// setup
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	engine := NewSQLiteEngine(t, WithMetrics(metrics), WithTracing(tracing))

	// act
	_, err := engine.GetBook(ctx, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, library.ErrNotFound)
	assert.True(t, metrics.HasDurationRecordWithLabels(
		"library_sql_operation_duration_seconds",
		map[string]string{"operation": "get_book", "status": "success"},
	))
	span, found := tracing.FindSpan("library.sql.get_book")
	require.True(t, found)
	assert.True(t, span.Finished)
	assert.Equal(t, DialectSQLite, span.StartAttributes["db.system"])
}

func Test_NewEngine_RejectsInvalidOptions(t *testing.T) {
	// setup
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// act
	_, nilErr := NewEngineFromSQLDB(nil)
	_, dialectErr := NewEngineFromSQLDB(db, WithDialect("mysql"))
	_, timeoutErr := NewEngineFromSQLDB(db, WithCallTimeout(0))

	// assert
	assert.ErrorIs(t, nilErr, library.ErrNilDatabaseConnection)
	assert.ErrorIs(t, dialectErr, library.ErrUnsupportedDialect)
	assert.ErrorIs(t, timeoutErr, library.ErrValidationFailed)
}
