package library

import (
	"time"

	"github.com/google/uuid"
)

// BorrowerKind tags which kind of person holds a loan.
type BorrowerKind string

const (
	BorrowerStudent BorrowerKind = "student"
	BorrowerTeacher BorrowerKind = "teacher"
)

// ParseBorrowerKind converts user input into a BorrowerKind.
func ParseBorrowerKind(s string) (BorrowerKind, error) {
	switch BorrowerKind(s) {
	case BorrowerStudent:
		return BorrowerStudent, nil
	case BorrowerTeacher:
		return BorrowerTeacher, nil
	default:
		return "", Validation("borrower kind must be student or teacher")
	}
}

// Valid reports whether k is one of the known borrower kinds.
func (k BorrowerKind) Valid() bool {
	return k == BorrowerStudent || k == BorrowerTeacher
}

// BorrowerRef is a tagged reference to exactly one borrower.
type BorrowerRef struct {
	Kind BorrowerKind `json:"kind"`
	ID   uuid.UUID    `json:"id"`
}

// StudentRef references a student borrower.
func StudentRef(id uuid.UUID) BorrowerRef {
	return BorrowerRef{Kind: BorrowerStudent, ID: id}
}

// TeacherRef references a teacher borrower.
func TeacherRef(id uuid.UUID) BorrowerRef {
	return BorrowerRef{Kind: BorrowerTeacher, ID: id}
}

// LoanStatus is the lifecycle state of a loan. Returned is terminal.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

// Book is a catalog title with a number of physical copies.
//
// AvailableCopies is kept in the store for display, but the lifecycle handlers always
// derive it from TotalCopies and the count of active loans before writing it back.
type Book struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Publisher       string     `json:"publisher"`
	Edition         string     `json:"edition"`
	PublicationYear int        `json:"publication_year"`
	TotalCopies     int        `json:"total_copies"`
	AvailableCopies int        `json:"available_copies"`
	ShelfLifeYears  *int       `json:"shelf_life_years,omitempty"`
	Category        string     `json:"category"`
	Grade           string     `json:"grade,omitempty"`
	Stage           string     `json:"stage,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the book was soft-deleted.
func (b Book) IsDeleted() bool {
	return b.DeletedAt != nil
}

// ClassGroup is a school class students belong to.
type ClassGroup struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Student is a borrower attending a class group.
type Student struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	RegistrationNumber string     `json:"registration_number"`
	ClassGroupID       *uuid.UUID `json:"class_group_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Teacher is a borrower from the school staff.
type Teacher struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Loan records one copy of a book checked out by exactly one borrower.
//
// BookTitle, BookAuthor and BorrowerName are snapshots taken at creation time,
// so a loan stays readable after the book or the person goes away.
type Loan struct {
	ID           uuid.UUID  `json:"id"`
	BookID       uuid.UUID  `json:"book_id"`
	StudentID    *uuid.UUID `json:"student_id"`
	TeacherID    *uuid.UUID `json:"teacher_id"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date"`
	Status       LoanStatus `json:"status"`
	RenewalCount int        `json:"renewal_count"`
	BookTitle    *string    `json:"book_title"`
	BookAuthor   *string    `json:"book_author"`
	BorrowerName *string    `json:"borrower_name"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Borrower returns the tagged borrower reference of the loan.
func (l Loan) Borrower() BorrowerRef {
	if l.StudentID != nil {
		return StudentRef(*l.StudentID)
	}

	if l.TeacherID != nil {
		return TeacherRef(*l.TeacherID)
	}

	return BorrowerRef{}
}

// IsActive reports whether the book is still checked out.
func (l Loan) IsActive() bool {
	return l.Status == LoanActive
}

// IsOverdue reports whether an active loan is past its due date at now.
func (l Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && l.DueDate.Before(now)
}

// CheckInvariants verifies the structural rules every stored loan must satisfy.
func (l Loan) CheckInvariants() error {
	if (l.StudentID == nil) == (l.TeacherID == nil) {
		return Validation("loan must reference exactly one of student or teacher")
	}

	switch l.Status {
	case LoanActive:
		if l.ReturnDate != nil {
			return Validation("active loan must not have a return date")
		}
	case LoanReturned:
		if l.ReturnDate == nil {
			return Validation("returned loan must have a return date")
		}
	default:
		return Validation("unknown loan status")
	}

	return nil
}

// LoanUpdate lists the loan fields a lifecycle operation may change. Nil means unchanged.
//
// ExpectedStatus guards the write: when set, the update only applies to a loan in that
// status and fails with ErrConcurrencyConflict otherwise.
type LoanUpdate struct {
	DueDate        *time.Time
	ReturnDate     *time.Time
	Status         *LoanStatus
	RenewalCount   *int
	ExpectedStatus LoanStatus
}

// IsEmpty reports whether the update changes nothing.
func (u LoanUpdate) IsEmpty() bool {
	return u.DueDate == nil && u.ReturnDate == nil && u.Status == nil && u.RenewalCount == nil
}

// Apply returns a copy of l with the update applied.
func (u LoanUpdate) Apply(l Loan) Loan {
	if u.DueDate != nil {
		l.DueDate = *u.DueDate
	}

	if u.ReturnDate != nil {
		returnDate := *u.ReturnDate
		l.ReturnDate = &returnDate
	}

	if u.Status != nil {
		l.Status = *u.Status
	}

	if u.RenewalCount != nil {
		l.RenewalCount = *u.RenewalCount
	}

	return l
}

// Notification tells a borrower about an overdue or soon due loan.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	LoanID    uuid.UUID        `json:"loan_id"`
	Borrower  BorrowerRef      `json:"borrower"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationKind classifies notifications.
type NotificationKind string

const (
	NotificationOverdue NotificationKind = "overdue"
	NotificationDueSoon NotificationKind = "due_soon"
)
