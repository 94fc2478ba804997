package overdueloans

import (
	"slices"
	"strings"

	"github.com/schoollibrary/circulation/library"
)

// Project splits active loans into overdue and soon due ones.
// This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: The loans of the library
//	WHEN: OverdueLoans query is executed
//	THEN: OverdueLoans struct is returned
//	INCLUDES: Active loans with due date < Now (overdue), most overdue first
//	INCLUDES: Active loans with Now <= due date < Now + DueSoonWithin (due soon), earliest first
//	EXCLUDES: Returned loans and loans due later
func Project(loans []library.Loan, query Query) OverdueLoans {
	dueSoonUntil := query.Now.Add(query.DueSoonWithin)

	result := OverdueLoans{
		Overdue: make([]LoanInfo, 0),
		DueSoon: make([]LoanInfo, 0),
	}

	for _, loan := range loans {
		if !loan.IsActive() {
			continue
		}

		switch {
		case loan.DueDate.Before(query.Now):
			result.Overdue = append(result.Overdue, infoFrom(loan, query))
		case loan.DueDate.Before(dueSoonUntil):
			result.DueSoon = append(result.DueSoon, infoFrom(loan, query))
		}
	}

	byDueDate := func(a, b LoanInfo) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}

		return strings.Compare(a.LoanID.String(), b.LoanID.String())
	}

	slices.SortFunc(result.Overdue, byDueDate)
	slices.SortFunc(result.DueSoon, byDueDate)

	result.OverdueCount = len(result.Overdue)
	result.DueSoonCount = len(result.DueSoon)

	return result
}

func infoFrom(loan library.Loan, query Query) LoanInfo {
	info := LoanInfo{
		LoanID:      loan.ID,
		BookID:      loan.BookID,
		Borrower:    loan.Borrower(),
		LoanDate:    loan.LoanDate,
		DueDate:     loan.DueDate,
		DaysOverdue: library.DaysOverdue(loan.DueDate, query.Now),
	}

	if loan.BookTitle != nil {
		info.BookTitle = *loan.BookTitle
	}

	if loan.BorrowerName != nil {
		info.BorrowerName = *loan.BorrowerName
	}

	return info
}
