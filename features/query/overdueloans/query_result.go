package overdueloans

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

// LoanInfo is an active loan as shown in the overdue view.
type LoanInfo struct {
	LoanID       uuid.UUID           `json:"loan_id"`
	BookID       uuid.UUID           `json:"book_id"`
	BookTitle    string              `json:"book_title"`
	Borrower     library.BorrowerRef `json:"borrower"`
	BorrowerName string              `json:"borrower_name"`
	LoanDate     time.Time           `json:"loan_date"`
	DueDate      time.Time           `json:"due_date"`
	DaysOverdue  int                 `json:"days_overdue"`
}

// OverdueLoans represents the query result.
type OverdueLoans struct {
	Overdue      []LoanInfo `json:"overdue"`
	DueSoon      []LoanInfo `json:"due_soon"`
	OverdueCount int        `json:"overdue_count"`
	DueSoonCount int        `json:"due_soon_count"`
}
