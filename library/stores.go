package library

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookStore holds the catalog and the per-book copy counters.
type BookStore interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (Book, error)

	// LockBook reads the book and holds a write lock on it until the surrounding transaction ends.
	LockBook(ctx context.Context, bookID uuid.UUID) (Book, error)

	InsertBook(ctx context.Context, book Book) error
	SetAvailableCopies(ctx context.Context, bookID uuid.UUID, available int) error
	SetCopies(ctx context.Context, bookID uuid.UUID, total int, available int) error
	SoftDeleteBook(ctx context.Context, bookID uuid.UUID, deletedAt time.Time) error
}

// LoanLedger holds the loan records.
type LoanLedger interface {
	CountActiveLoans(ctx context.Context, bookID uuid.UUID) (int, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (Loan, error)

	// LockLoan reads the loan and holds a write lock on it until the surrounding transaction ends.
	LockLoan(ctx context.Context, loanID uuid.UUID) (Loan, error)

	InsertLoan(ctx context.Context, loan Loan) (Loan, error)
	UpdateLoan(ctx context.Context, loanID uuid.UUID, update LoanUpdate) (Loan, error)
}

// PersonDirectory holds the borrowers and the class groups students belong to.
type PersonDirectory interface {
	BorrowerExists(ctx context.Context, borrower BorrowerRef) (bool, error)

	// GetBorrowerName returns ErrNotFound if the borrower does not exist.
	GetBorrowerName(ctx context.Context, borrower BorrowerRef) (string, error)

	ClassGroupExists(ctx context.Context, classGroupID uuid.UUID) (bool, error)
	InsertClassGroup(ctx context.Context, classGroup ClassGroup) error
	InsertStudent(ctx context.Context, student Student) error
	InsertTeacher(ctx context.Context, teacher Teacher) error
}

// LifecycleRecord is one entry in the audit trail of lifecycle decisions, including rejected ones.
type LifecycleRecord struct {
	ID           uuid.UUID
	EventType    string
	OccurredAt   time.Time
	LoanID       *uuid.UUID
	BookID       *uuid.UUID
	PayloadJSON  []byte
	MetadataJSON []byte
}

// AuditLog appends lifecycle records.
type AuditLog interface {
	AppendLifecycleRecord(ctx context.Context, record LifecycleRecord) error
}

// Tx is the set of repositories available inside a unit of work.
// All writes made through a Tx are committed or rolled back together.
type Tx interface {
	BookStore
	LoanLedger
	PersonDirectory
	AuditLog
}

// UnitOfWork runs fn inside a transaction. The transaction commits if fn returns nil
// and rolls back otherwise. The ctx handed to fn carries the transaction deadline.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Totals are the dashboard counters.
type Totals struct {
	Books        int `json:"books"`
	Students     int `json:"students"`
	Teachers     int `json:"teachers"`
	Loans        int `json:"loans"`
	ActiveLoans  int `json:"active_loans"`
	OverdueLoans int `json:"overdue_loans"`
}

// BookLoanCount is a row of the most borrowed books ranking.
type BookLoanCount struct {
	BookID uuid.UUID `json:"book_id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	Loans  int       `json:"loans"`
}

// ClassGroupLoanCount counts loans made by the students of one class group.
type ClassGroupLoanCount struct {
	ClassGroupID uuid.UUID `json:"class_group_id"`
	Name         string    `json:"name"`
	Loans        int       `json:"loans"`
}

// StudentLoanCount is a row of the students with most loans ranking.
type StudentLoanCount struct {
	StudentID          uuid.UUID `json:"student_id"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registration_number"`
	Loans              int       `json:"loans"`
}

// Catalog serves listings and single-record reads outside of a unit of work.
type Catalog interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (Book, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (Loan, error)
	ListBooks(ctx context.Context, includeDeleted bool) ([]Book, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]Loan, error)
	ListStudents(ctx context.Context) ([]Student, error)
	ListTeachers(ctx context.Context) ([]Teacher, error)
	ListClassGroups(ctx context.Context) ([]ClassGroup, error)
	ListLifecycleRecords(ctx context.Context, loanID uuid.UUID) ([]LifecycleRecord, error)
}

// ReportSource serves the aggregates of the dashboard and the reports page.
type ReportSource interface {
	Totals(ctx context.Context, now time.Time) (Totals, error)
	MostBorrowedBooks(ctx context.Context, limit int) ([]BookLoanCount, error)
	LoansPerClassGroup(ctx context.Context) ([]ClassGroupLoanCount, error)
	StudentsWithMostLoans(ctx context.Context, limit int) ([]StudentLoanCount, error)
	LoanDatesSince(ctx context.Context, from time.Time) ([]time.Time, error)
}

// NotificationStore keeps the notifications sent to borrowers.
type NotificationStore interface {
	// RecordNotification stores n unless the loan already got one of the same kind that UTC day.
	// It reports whether n was stored.
	RecordNotification(ctx context.Context, n Notification) (bool, error)
	ListNotifications(ctx context.Context, borrower *BorrowerRef, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID uuid.UUID) error
}

// Store is everything a storage engine offers to the service.
type Store interface {
	UnitOfWork
	Catalog
	ReportSource
	NotificationStore
}
