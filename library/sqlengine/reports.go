package sqlengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	operationTotals                = "totals"
	operationMostBorrowedBooks     = "most_borrowed_books"
	operationLoansPerClassGroup    = "loans_per_class_group"
	operationStudentsWithMostLoans = "students_with_most_loans"

	aliasLoanCount = "loan_count"
)

// Totals counts the dashboard figures. Soft-deleted books are not counted.
func (e *Engine) Totals(ctx context.Context, now time.Time) (library.Totals, error) {
	var (
		totals library.Totals
		err    error
	)

	count := func(ds *goqu.SelectDataset) int {
		if err != nil {
			return 0
		}

		var n int
		n, err = e.queryCount(ctx, operationTotals, ds.Select(goqu.COUNT(goqu.Star())))

		return n
	}

	active := goqu.C("status").Eq(string(library.LoanActive))

	totals.Books = count(e.from(tableBooks).Where(goqu.C("deleted_at").IsNull()))
	totals.Students = count(e.from(tableStudents))
	totals.Teachers = count(e.from(tableTeachers))
	totals.Loans = count(e.from(tableLoans))
	totals.ActiveLoans = count(e.from(tableLoans).Where(active))
	totals.OverdueLoans = count(e.from(tableLoans).Where(active, goqu.C("due_date").Lt(library.ToTimestamp(now))))

	if err != nil {
		return library.Totals{}, err
	}

	return totals, nil
}

// MostBorrowedBooks ranks books by their number of loans, all time.
func (e *Engine) MostBorrowedBooks(ctx context.Context, limit int) ([]library.BookLoanCount, error) {
	ds := e.from(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Select(goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.COUNT(goqu.I("l.id")).As(aliasLoanCount)).
		GroupBy(goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author")).
		Order(goqu.C(aliasLoanCount).Desc(), goqu.I("b.title").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	ranking := make([]library.BookLoanCount, 0)

	err := e.queryRows(ctx, operationMostBorrowedBooks, ds, func(rows adapters.DBRows) error {
		var row library.BookLoanCount
		if scanErr := rows.Scan(&row.BookID, &row.Title, &row.Author, &row.Loans); scanErr != nil {
			return scanErr
		}

		ranking = append(ranking, row)

		return nil
	})

	return ranking, err
}

// LoansPerClassGroup counts the loans made by students, grouped by their class group.
func (e *Engine) LoansPerClassGroup(ctx context.Context) ([]library.ClassGroupLoanCount, error) {
	ds := e.from(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableStudents).As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("l.student_id")))).
		Join(goqu.T(tableClassGroups).As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("s.class_group_id")))).
		Select(goqu.I("c.id"), goqu.I("c.name"), goqu.COUNT(goqu.I("l.id")).As(aliasLoanCount)).
		GroupBy(goqu.I("c.id"), goqu.I("c.name")).
		Order(goqu.C(aliasLoanCount).Desc(), goqu.I("c.name").Asc())

	counts := make([]library.ClassGroupLoanCount, 0)

	err := e.queryRows(ctx, operationLoansPerClassGroup, ds, func(rows adapters.DBRows) error {
		var row library.ClassGroupLoanCount
		if scanErr := rows.Scan(&row.ClassGroupID, &row.Name, &row.Loans); scanErr != nil {
			return scanErr
		}

		counts = append(counts, row)

		return nil
	})

	return counts, err
}

// StudentsWithMostLoans ranks students by their number of loans, all time.
func (e *Engine) StudentsWithMostLoans(ctx context.Context, limit int) ([]library.StudentLoanCount, error) {
	ds := e.from(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableStudents).As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("l.student_id")))).
		Select(goqu.I("s.id"), goqu.I("s.name"), goqu.I("s.registration_number"),
			goqu.COUNT(goqu.I("l.id")).As(aliasLoanCount)).
		GroupBy(goqu.I("s.id"), goqu.I("s.name"), goqu.I("s.registration_number")).
		Order(goqu.C(aliasLoanCount).Desc(), goqu.I("s.name").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	ranking := make([]library.StudentLoanCount, 0)

	err := e.queryRows(ctx, operationStudentsWithMostLoans, ds, func(rows adapters.DBRows) error {
		var row library.StudentLoanCount
		if scanErr := rows.Scan(&row.StudentID, &row.Name, &row.RegistrationNumber, &row.Loans); scanErr != nil {
			return scanErr
		}

		ranking = append(ranking, row)

		return nil
	})

	return ranking, err
}

// LoanDatesSince returns the loan dates of all loans made at or after from.
// Month bucketing happens in Go, date functions differ between the dialects.
func (e *Engine) LoanDatesSince(ctx context.Context, from time.Time) ([]time.Time, error) {
	ds := e.from(tableLoans).Select("loan_date").
		Where(goqu.C("loan_date").Gte(library.ToTimestamp(from))).
		Order(goqu.C("loan_date").Asc())

	dates := make([]time.Time, 0)

	err := e.queryRows(ctx, operationLoanDatesSince, ds, func(rows adapters.DBRows) error {
		var loanDate time.Time
		if scanErr := rows.Scan(&loanDate); scanErr != nil {
			return scanErr
		}

		dates = append(dates, loanDate.UTC())

		return nil
	})

	return dates, err
}
