package memengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

const defaultTxTimeout = 10 * time.Second

// Engine is the in-memory storage engine.
type Engine struct {
	mu            sync.Mutex
	books         map[uuid.UUID]library.Book
	loans         map[uuid.UUID]library.Loan
	students      map[uuid.UUID]library.Student
	teachers      map[uuid.UUID]library.Teacher
	classGroups   map[uuid.UUID]library.ClassGroup
	records       []library.LifecycleRecord
	notifications []library.Notification

	locksMu   sync.Mutex
	bookLocks map[uuid.UUID]chan struct{}
	loanLocks map[uuid.UUID]chan struct{}

	txTimeout time.Duration
	logger    library.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithTxTimeout bounds a whole unit of work, including the wait for record locks.
func WithTxTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return library.Validation("transaction timeout must be positive")
		}

		e.txTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Engine. Rolled back units of work are logged at debug level.
func WithLogger(logger library.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// NewEngine creates an empty in-memory engine.
func NewEngine(options ...Option) (*Engine, error) {
	e := &Engine{
		books:       make(map[uuid.UUID]library.Book),
		loans:       make(map[uuid.UUID]library.Loan),
		students:    make(map[uuid.UUID]library.Student),
		teachers:    make(map[uuid.UUID]library.Teacher),
		classGroups: make(map[uuid.UUID]library.ClassGroup),
		bookLocks:   make(map[uuid.UUID]chan struct{}),
		loanLocks:   make(map[uuid.UUID]chan struct{}),
		txTimeout:   defaultTxTimeout,
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// WithinTx runs fn in a unit of work. Writes are undone and locks released when fn fails.
func (e *Engine) WithinTx(ctx context.Context, fn func(ctx context.Context, tx library.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.txTimeout)
	defer cancel()

	t := &tx{e: e}
	defer t.releaseLocks()

	if err := fn(ctx, t); err != nil {
		t.rollback()

		if e.logger != nil {
			e.logger.Debug("unit of work rolled back", "error", err.Error(), "undone_writes", len(t.undo))
		}

		return err
	}

	return nil
}

func (e *Engine) lockFor(locks map[uuid.UUID]chan struct{}, id uuid.UUID) chan struct{} {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := locks[id]
	if !ok {
		lock = make(chan struct{}, 1)
		locks[id] = lock
	}

	return lock
}

// acquire waits for lock until ctx is done. A lock that is not granted in time makes the
// backend unavailable from the caller's point of view.
func acquire(ctx context.Context, lock chan struct{}) error {
	select {
	case lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}

		return errors.Join(library.ErrUnavailable, fmt.Errorf("waiting for record lock: %w", ctx.Err()))
	}
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", library.ErrNotFound, kind, id)
}

/***** read side, used outside of units of work *****/

func (e *Engine) GetBook(_ context.Context, bookID uuid.UUID) (library.Book, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	book, ok := e.books[bookID]
	if !ok {
		return library.Book{}, notFound("book", bookID)
	}

	return book, nil
}

func (e *Engine) GetLoan(_ context.Context, loanID uuid.UUID) (library.Loan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.loans[loanID]
	if !ok {
		return library.Loan{}, notFound("loan", loanID)
	}

	return loan, nil
}

func (e *Engine) ListBooks(_ context.Context, includeDeleted bool) ([]library.Book, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	books := make([]library.Book, 0, len(e.books))
	for _, book := range e.books {
		if includeDeleted || !book.IsDeleted() {
			books = append(books, book)
		}
	}

	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}

		return books[i].ID.String() < books[j].ID.String()
	})

	return books, nil
}

// ListLoans returns the loans matching filter, newest first.
func (e *Engine) ListLoans(_ context.Context, filter library.LoanFilter) ([]library.Loan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loans := make([]library.Loan, 0)
	for _, loan := range e.loans {
		if filter.Matches(loan) {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].LoanDate.Equal(loans[j].LoanDate) {
			return loans[i].LoanDate.After(loans[j].LoanDate)
		}

		return loans[i].ID.String() < loans[j].ID.String()
	})

	if limit := filter.Limit(); limit > 0 && len(loans) > limit {
		loans = loans[:limit]
	}

	return loans, nil
}

func (e *Engine) ListStudents(_ context.Context) ([]library.Student, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	students := make([]library.Student, 0, len(e.students))
	for _, student := range e.students {
		students = append(students, student)
	}

	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}

		return students[i].ID.String() < students[j].ID.String()
	})

	return students, nil
}

func (e *Engine) ListTeachers(_ context.Context) ([]library.Teacher, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	teachers := make([]library.Teacher, 0, len(e.teachers))
	for _, teacher := range e.teachers {
		teachers = append(teachers, teacher)
	}

	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].Name != teachers[j].Name {
			return teachers[i].Name < teachers[j].Name
		}

		return teachers[i].ID.String() < teachers[j].ID.String()
	})

	return teachers, nil
}

func (e *Engine) ListClassGroups(_ context.Context) ([]library.ClassGroup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	classGroups := make([]library.ClassGroup, 0, len(e.classGroups))
	for _, classGroup := range e.classGroups {
		classGroups = append(classGroups, classGroup)
	}

	sort.Slice(classGroups, func(i, j int) bool { return classGroups[i].Name < classGroups[j].Name })

	return classGroups, nil
}

func (e *Engine) ListLifecycleRecords(_ context.Context, loanID uuid.UUID) ([]library.LifecycleRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := make([]library.LifecycleRecord, 0)
	for _, record := range e.records {
		if record.LoanID != nil && *record.LoanID == loanID {
			records = append(records, record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].OccurredAt.Before(records[j].OccurredAt) })

	return records, nil
}

var _ library.Store = (*Engine)(nil)
