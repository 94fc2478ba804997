package memengine

import (
	"context"
	"sort"
	"time"

	"github.com/schoollibrary/circulation/library"
)

// Totals counts the dashboard figures. Soft-deleted books are not counted.
func (e *Engine) Totals(_ context.Context, now time.Time) (library.Totals, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	totals := library.Totals{
		Students: len(e.students),
		Teachers: len(e.teachers),
		Loans:    len(e.loans),
	}

	for _, book := range e.books {
		if !book.IsDeleted() {
			totals.Books++
		}
	}

	for _, loan := range e.loans {
		if loan.IsActive() {
			totals.ActiveLoans++
		}

		if loan.IsOverdue(now) {
			totals.OverdueLoans++
		}
	}

	return totals, nil
}

func (e *Engine) MostBorrowedBooks(_ context.Context, limit int) ([]library.BookLoanCount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[library.BookLoanCount]int)
	for _, loan := range e.loans {
		book, ok := e.books[loan.BookID]
		if !ok {
			continue
		}

		counts[library.BookLoanCount{BookID: book.ID, Title: book.Title, Author: book.Author}]++
	}

	ranking := make([]library.BookLoanCount, 0, len(counts))
	for row, loans := range counts {
		row.Loans = loans
		ranking = append(ranking, row)
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Loans != ranking[j].Loans {
			return ranking[i].Loans > ranking[j].Loans
		}

		return ranking[i].Title < ranking[j].Title
	})

	return truncate(ranking, limit), nil
}

func (e *Engine) LoansPerClassGroup(_ context.Context) ([]library.ClassGroupLoanCount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[library.ClassGroupLoanCount]int)
	for _, loan := range e.loans {
		if loan.StudentID == nil {
			continue
		}

		student, ok := e.students[*loan.StudentID]
		if !ok || student.ClassGroupID == nil {
			continue
		}

		classGroup, ok := e.classGroups[*student.ClassGroupID]
		if !ok {
			continue
		}

		counts[library.ClassGroupLoanCount{ClassGroupID: classGroup.ID, Name: classGroup.Name}]++
	}

	rows := make([]library.ClassGroupLoanCount, 0, len(counts))
	for row, loans := range counts {
		row.Loans = loans
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Loans != rows[j].Loans {
			return rows[i].Loans > rows[j].Loans
		}

		return rows[i].Name < rows[j].Name
	})

	return rows, nil
}

func (e *Engine) StudentsWithMostLoans(_ context.Context, limit int) ([]library.StudentLoanCount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[library.StudentLoanCount]int)
	for _, loan := range e.loans {
		if loan.StudentID == nil {
			continue
		}

		student, ok := e.students[*loan.StudentID]
		if !ok {
			continue
		}

		counts[library.StudentLoanCount{
			StudentID:          student.ID,
			Name:               student.Name,
			RegistrationNumber: student.RegistrationNumber,
		}]++
	}

	ranking := make([]library.StudentLoanCount, 0, len(counts))
	for row, loans := range counts {
		row.Loans = loans
		ranking = append(ranking, row)
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Loans != ranking[j].Loans {
			return ranking[i].Loans > ranking[j].Loans
		}

		return ranking[i].Name < ranking[j].Name
	})

	return truncate(ranking, limit), nil
}

func (e *Engine) LoanDatesSince(_ context.Context, from time.Time) ([]time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dates := make([]time.Time, 0)
	for _, loan := range e.loans {
		if !loan.LoanDate.Before(from) {
			dates = append(dates, loan.LoanDate)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates, nil
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}

	return rows
}
