package memengine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

// tx is a unit of work on the Engine. It records an undo step for every write
// and the locks it holds.
type tx struct {
	e     *Engine
	undo  []func()
	locks []chan struct{}
	held  map[chan struct{}]bool
}

// WithinTx joins the running unit of work.
func (t *tx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx library.Tx) error) error {
	return fn(ctx, t)
}

func (t *tx) lock(ctx context.Context, lock chan struct{}) error {
	if t.held[lock] {
		return nil
	}

	if err := acquire(ctx, lock); err != nil {
		return err
	}

	if t.held == nil {
		t.held = make(map[chan struct{}]bool)
	}

	t.held[lock] = true
	t.locks = append(t.locks, lock)

	return nil
}

func (t *tx) releaseLocks() {
	for i := len(t.locks) - 1; i >= 0; i-- {
		<-t.locks[i]
	}

	t.locks = nil
	t.held = nil
}

func (t *tx) rollback() {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

// write runs fn under the engine mutex. fn returns the undo step of its change, or nil.
func (t *tx) write(ctx context.Context, fn func() (func(), error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	undo, err := fn()
	if err != nil {
		return err
	}

	if undo != nil {
		t.undo = append(t.undo, undo)
	}

	return nil
}

/***** BookStore *****/

func (t *tx) GetBook(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	return t.e.GetBook(ctx, bookID)
}

func (t *tx) LockBook(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	if err := t.lock(ctx, t.e.lockFor(t.e.bookLocks, bookID)); err != nil {
		return library.Book{}, err
	}

	return t.e.GetBook(ctx, bookID)
}

func (t *tx) InsertBook(ctx context.Context, book library.Book) error {
	return t.write(ctx, func() (func(), error) {
		if _, exists := t.e.books[book.ID]; exists {
			return nil, library.Validation("book already exists")
		}

		if book.TotalCopies < 0 || book.AvailableCopies < 0 || book.AvailableCopies > book.TotalCopies {
			return nil, library.Validation("copies must satisfy 0 <= available <= total")
		}

		book.CreatedAt = library.ToTimestamp(book.CreatedAt)
		t.e.books[book.ID] = book

		return func() { delete(t.e.books, book.ID) }, nil
	})
}

// SetAvailableCopies writes the copy counter. A counter above the total never lands.
func (t *tx) SetAvailableCopies(ctx context.Context, bookID uuid.UUID, available int) error {
	if available < 0 {
		return library.Validation("available copies must not be negative")
	}

	return t.write(ctx, func() (func(), error) {
		book, ok := t.e.books[bookID]
		if !ok {
			return nil, notFound("book", bookID)
		}

		if available > book.TotalCopies {
			return nil, library.ErrConcurrencyConflict
		}

		return t.replaceBook(book, func(b *library.Book) { b.AvailableCopies = available }), nil
	})
}

func (t *tx) SetCopies(ctx context.Context, bookID uuid.UUID, total int, available int) error {
	if total < 0 || available < 0 || available > total {
		return library.Validation("copies must satisfy 0 <= available <= total")
	}

	return t.write(ctx, func() (func(), error) {
		book, ok := t.e.books[bookID]
		if !ok {
			return nil, notFound("book", bookID)
		}

		return t.replaceBook(book, func(b *library.Book) {
			b.TotalCopies = total
			b.AvailableCopies = available
		}), nil
	})
}

func (t *tx) SoftDeleteBook(ctx context.Context, bookID uuid.UUID, deletedAt time.Time) error {
	return t.write(ctx, func() (func(), error) {
		book, ok := t.e.books[bookID]
		if !ok {
			return nil, notFound("book", bookID)
		}

		if book.IsDeleted() {
			return nil, library.ErrConcurrencyConflict
		}

		deleted := library.ToTimestamp(deletedAt)

		return t.replaceBook(book, func(b *library.Book) { b.DeletedAt = &deleted }), nil
	})
}

// replaceBook must run under the engine mutex.
func (t *tx) replaceBook(old library.Book, change func(b *library.Book)) func() {
	changed := old
	change(&changed)
	t.e.books[old.ID] = changed

	return func() { t.e.books[old.ID] = old }
}

/***** LoanLedger *****/

func (t *tx) CountActiveLoans(_ context.Context, bookID uuid.UUID) (int, error) {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	count := 0
	for _, loan := range t.e.loans {
		if loan.BookID == bookID && loan.IsActive() {
			count++
		}
	}

	return count, nil
}

func (t *tx) GetLoan(ctx context.Context, loanID uuid.UUID) (library.Loan, error) {
	return t.e.GetLoan(ctx, loanID)
}

func (t *tx) LockLoan(ctx context.Context, loanID uuid.UUID) (library.Loan, error) {
	if err := t.lock(ctx, t.e.lockFor(t.e.loanLocks, loanID)); err != nil {
		return library.Loan{}, err
	}

	return t.e.GetLoan(ctx, loanID)
}

func (t *tx) InsertLoan(ctx context.Context, loan library.Loan) (library.Loan, error) {
	if err := loan.CheckInvariants(); err != nil {
		return library.Loan{}, err
	}

	loan.LoanDate = library.ToTimestamp(loan.LoanDate)
	loan.DueDate = library.ToTimestamp(loan.DueDate)
	loan.CreatedAt = library.ToTimestamp(loan.CreatedAt)

	err := t.write(ctx, func() (func(), error) {
		if _, exists := t.e.loans[loan.ID]; exists {
			return nil, library.Validation("loan already exists")
		}

		if _, ok := t.e.books[loan.BookID]; !ok {
			return nil, library.Validation("loan references an unknown book")
		}

		if !t.e.borrowerExists(loan.Borrower()) {
			return nil, library.Validation("loan references an unknown borrower")
		}

		t.e.loans[loan.ID] = loan

		return func() { delete(t.e.loans, loan.ID) }, nil
	})
	if err != nil {
		return library.Loan{}, err
	}

	return loan, nil
}

// UpdateLoan applies update. A guarded update on a loan in another status fails with
// library.ErrConcurrencyConflict.
func (t *tx) UpdateLoan(ctx context.Context, loanID uuid.UUID, update library.LoanUpdate) (library.Loan, error) {
	var updated library.Loan

	err := t.write(ctx, func() (func(), error) {
		old, ok := t.e.loans[loanID]
		if !ok {
			return nil, notFound("loan", loanID)
		}

		if update.ExpectedStatus != "" && old.Status != update.ExpectedStatus {
			return nil, library.ErrConcurrencyConflict
		}

		updated = update.Apply(old)
		updated.DueDate = library.ToTimestamp(updated.DueDate)
		if updated.ReturnDate != nil {
			returnDate := library.ToTimestamp(*updated.ReturnDate)
			updated.ReturnDate = &returnDate
		}

		if err := updated.CheckInvariants(); err != nil {
			return nil, err
		}

		t.e.loans[loanID] = updated

		return func() { t.e.loans[loanID] = old }, nil
	})
	if err != nil {
		return library.Loan{}, err
	}

	return updated, nil
}

/***** PersonDirectory *****/

func (t *tx) BorrowerExists(_ context.Context, borrower library.BorrowerRef) (bool, error) {
	if !borrower.Kind.Valid() {
		return false, library.Validation("unknown borrower kind")
	}

	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	return t.e.borrowerExists(borrower), nil
}

func (t *tx) GetBorrowerName(_ context.Context, borrower library.BorrowerRef) (string, error) {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	switch borrower.Kind {
	case library.BorrowerStudent:
		if student, ok := t.e.students[borrower.ID]; ok {
			return student.Name, nil
		}
	case library.BorrowerTeacher:
		if teacher, ok := t.e.teachers[borrower.ID]; ok {
			return teacher.Name, nil
		}
	default:
		return "", library.Validation("unknown borrower kind")
	}

	return "", notFound(string(borrower.Kind), borrower.ID)
}

func (t *tx) ClassGroupExists(_ context.Context, classGroupID uuid.UUID) (bool, error) {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	_, ok := t.e.classGroups[classGroupID]

	return ok, nil
}

func (t *tx) InsertClassGroup(ctx context.Context, classGroup library.ClassGroup) error {
	return t.write(ctx, func() (func(), error) {
		if _, exists := t.e.classGroups[classGroup.ID]; exists {
			return nil, library.Validation("class group already exists")
		}

		for _, other := range t.e.classGroups {
			if other.Name == classGroup.Name {
				return nil, library.Validation(fmt.Sprintf("class group %q already exists", classGroup.Name))
			}
		}

		t.e.classGroups[classGroup.ID] = classGroup

		return func() { delete(t.e.classGroups, classGroup.ID) }, nil
	})
}

func (t *tx) InsertStudent(ctx context.Context, student library.Student) error {
	return t.write(ctx, func() (func(), error) {
		if _, exists := t.e.students[student.ID]; exists {
			return nil, library.Validation("student already exists")
		}

		for _, other := range t.e.students {
			if other.RegistrationNumber == student.RegistrationNumber {
				return nil, library.Validation("registration number already in use")
			}
		}

		if student.ClassGroupID != nil {
			if _, ok := t.e.classGroups[*student.ClassGroupID]; !ok {
				return nil, library.Validation("student references an unknown class group")
			}
		}

		student.CreatedAt = library.ToTimestamp(student.CreatedAt)
		t.e.students[student.ID] = student

		return func() { delete(t.e.students, student.ID) }, nil
	})
}

func (t *tx) InsertTeacher(ctx context.Context, teacher library.Teacher) error {
	return t.write(ctx, func() (func(), error) {
		if _, exists := t.e.teachers[teacher.ID]; exists {
			return nil, library.Validation("teacher already exists")
		}

		teacher.CreatedAt = library.ToTimestamp(teacher.CreatedAt)
		t.e.teachers[teacher.ID] = teacher

		return func() { delete(t.e.teachers, teacher.ID) }, nil
	})
}

/***** AuditLog *****/

func (t *tx) AppendLifecycleRecord(ctx context.Context, record library.LifecycleRecord) error {
	if len(record.MetadataJSON) == 0 {
		record.MetadataJSON = []byte("{}")
	}

	record.OccurredAt = library.ToTimestamp(record.OccurredAt)

	return t.write(ctx, func() (func(), error) {
		t.e.records = append(t.e.records, record)

		return func() {
			for i := range t.e.records {
				if t.e.records[i].ID == record.ID {
					t.e.records = append(t.e.records[:i], t.e.records[i+1:]...)
					return
				}
			}
		}, nil
	})
}

// borrowerExists must run under the engine mutex.
func (e *Engine) borrowerExists(borrower library.BorrowerRef) bool {
	switch borrower.Kind {
	case library.BorrowerStudent:
		_, ok := e.students[borrower.ID]
		return ok
	case library.BorrowerTeacher:
		_, ok := e.teachers[borrower.ID]
		return ok
	default:
		return false
	}
}

var _ library.Tx = (*tx)(nil)
var _ library.UnitOfWork = (*tx)(nil)
