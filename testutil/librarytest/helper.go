package librarytest

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sql driver
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine"
)

// FakeClockStart is a fixed point in time tests build their clocks from.
var FakeClockStart = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id
}

// NewSQLiteEngine creates a migrated engine on a fresh SQLite file in the test's temp dir.
func NewSQLiteEngine(t testing.TB, options ...sqlengine.Option) *sqlengine.Engine {
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=1&_txlock=immediate&_busy_timeout=5000",
		filepath.Join(t.TempDir(), "library.db"),
	)

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err, "error opening sqlite in test setup")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	engine, err := sqlengine.NewEngineFromSQLDB(
		db,
		append([]sqlengine.Option{sqlengine.WithDialect(sqlengine.DialectSQLite)}, options...)...,
	)
	require.NoError(t, err, "error creating the engine in test setup")
	require.NoError(t, engine.Migrate(context.Background()), "error migrating the schema in test setup")

	return engine
}

func FixtureBook(bookID uuid.UUID, totalCopies int, createdAt time.Time) library.Book {
	shelfLife := 5

	return library.Book{
		ID:              bookID,
		Title:           "Learning Domain-Driven Design " + bookID.String()[:8],
		Author:          "Vlad Khononov",
		Publisher:       "O'Reilly Media, Inc.",
		Edition:         "First Edition",
		PublicationYear: 2021,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		ShelfLifeYears:  &shelfLife,
		Category:        "software",
		CreatedAt:       createdAt,
	}
}

func GivenBook(t testing.TB, ctx context.Context, uow library.UnitOfWork, totalCopies int, clock time.Time) library.Book {
	book := FixtureBook(GivenUniqueID(t), totalCopies, clock)

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.InsertBook(ctx, book)
	})
	require.NoError(t, err, "error in arranging test data")

	return book
}

func GivenClassGroup(t testing.TB, ctx context.Context, uow library.UnitOfWork, name string) library.ClassGroup {
	classGroup := library.ClassGroup{ID: GivenUniqueID(t), Name: name}

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.InsertClassGroup(ctx, classGroup)
	})
	require.NoError(t, err, "error in arranging test data")

	return classGroup
}

func GivenStudent(
	t testing.TB,
	ctx context.Context,
	uow library.UnitOfWork,
	classGroupID *uuid.UUID,
	clock time.Time,
) library.Student {

	student := library.Student{
		ID:                 GivenUniqueID(t),
		Name:               "Ana Souza",
		RegistrationNumber: fmt.Sprintf("R-%08d", rand.IntN(100_000_000)),
		ClassGroupID:       classGroupID,
		CreatedAt:          clock,
	}

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.InsertStudent(ctx, student)
	})
	require.NoError(t, err, "error in arranging test data")

	return student
}

func GivenTeacher(t testing.TB, ctx context.Context, uow library.UnitOfWork, clock time.Time) library.Teacher {
	teacher := library.Teacher{ID: GivenUniqueID(t), Name: "Carlos Lima", CreatedAt: clock}

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.InsertTeacher(ctx, teacher)
	})
	require.NoError(t, err, "error in arranging test data")

	return teacher
}

func FixtureActiveLoan(loanID uuid.UUID, bookID uuid.UUID, borrower library.BorrowerRef, loanDate time.Time) library.Loan {
	loan := library.Loan{
		ID:        loanID,
		BookID:    bookID,
		LoanDate:  library.ToTimestamp(loanDate),
		DueDate:   library.DueDateFrom(loanDate),
		Status:    library.LoanActive,
		CreatedAt: library.ToTimestamp(loanDate),
	}

	borrowerID := borrower.ID
	if borrower.Kind == library.BorrowerTeacher {
		loan.TeacherID = &borrowerID
	} else {
		loan.StudentID = &borrowerID
	}

	return loan
}

// GivenActiveLoan stores an active loan and takes the copy off the shelf, like a created loan would.
func GivenActiveLoan(
	t testing.TB,
	ctx context.Context,
	uow library.UnitOfWork,
	bookID uuid.UUID,
	borrower library.BorrowerRef,
	loanDate time.Time,
) library.Loan {

	var loan library.Loan

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}

		loan, err = tx.InsertLoan(ctx, FixtureActiveLoan(GivenUniqueID(t), bookID, borrower, loanDate))
		if err != nil {
			return err
		}

		return tx.SetAvailableCopies(ctx, bookID, book.AvailableCopies-1)
	})
	require.NoError(t, err, "error in arranging test data")

	return loan
}

// GivenAvailableCopiesDrifted overwrites the stored counter, as a manual edit or a lost write would.
func GivenAvailableCopiesDrifted(t testing.TB, ctx context.Context, uow library.UnitOfWork, bookID uuid.UUID, available int) {
	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return tx.SetAvailableCopies(ctx, bookID, available)
	})
	require.NoError(t, err, "error in arranging test data")
}

func GetBook(t testing.TB, ctx context.Context, uow library.UnitOfWork, bookID uuid.UUID) library.Book {
	var book library.Book

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		var err error
		book, err = tx.GetBook(ctx, bookID)

		return err
	})
	require.NoError(t, err, "error reading test data")

	return book
}

func GetLoan(t testing.TB, ctx context.Context, uow library.UnitOfWork, loanID uuid.UUID) library.Loan {
	var loan library.Loan

	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, loanID)

		return err
	})
	require.NoError(t, err, "error reading test data")

	return loan
}

// GetLifecycleEventTypes returns the event types in the audit trail of loanID, oldest first.
func GetLifecycleEventTypes(t testing.TB, ctx context.Context, catalog library.Catalog, loanID uuid.UUID) []string {
	records, err := catalog.ListLifecycleRecords(ctx, loanID)
	require.NoError(t, err, "error reading test data")

	eventTypes := make([]string, 0, len(records))
	for _, record := range records {
		eventTypes = append(eventTypes, record.EventType)
	}

	return eventTypes
}
