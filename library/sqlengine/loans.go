package sqlengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	operationCountActiveLoans = "count_active_loans"
	operationGetLoan          = "get_loan"
	operationLockLoan         = "lock_loan"
	operationInsertLoan       = "insert_loan"
	operationUpdateLoan       = "update_loan"
	operationListLoans        = "list_loans"
	operationLoanDatesSince   = "loan_dates_since"
)

var loanColumns = []any{
	"id", "book_id", "student_id", "teacher_id", "loan_date", "due_date", "return_date", "status",
	"renewal_count", "book_title", "book_author", "borrower_name", "created_at",
}

func scanLoan(rows adapters.DBRows) (library.Loan, error) {
	var (
		loan                             library.Loan
		studentID, teacherID             uuid.NullUUID
		returnDate                       sql.NullTime
		status                           string
		bookTitle, bookAuthor, borrowerN sql.NullString
	)

	err := rows.Scan(
		&loan.ID, &loan.BookID, &studentID, &teacherID, &loan.LoanDate, &loan.DueDate, &returnDate, &status,
		&loan.RenewalCount, &bookTitle, &bookAuthor, &borrowerN, &loan.CreatedAt,
	)
	if err != nil {
		return library.Loan{}, err
	}

	loan.StudentID = nullID(studentID)
	loan.TeacherID = nullID(teacherID)
	loan.LoanDate = loan.LoanDate.UTC()
	loan.DueDate = loan.DueDate.UTC()
	loan.ReturnDate = nullTime(returnDate)
	loan.Status = library.LoanStatus(status)
	loan.BookTitle = nullString(bookTitle)
	loan.BookAuthor = nullString(bookAuthor)
	loan.BorrowerName = nullString(borrowerN)
	loan.CreatedAt = loan.CreatedAt.UTC()

	return loan, nil
}

// CountActiveLoans counts the copies of a book that are currently checked out.
func (e *Engine) CountActiveLoans(ctx context.Context, bookID uuid.UUID) (int, error) {
	return e.queryCount(ctx, operationCountActiveLoans, e.from(tableLoans).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("book_id").Eq(bookID.String()), goqu.C("status").Eq(string(library.LoanActive))))
}

func (e *Engine) GetLoan(ctx context.Context, loanID uuid.UUID) (library.Loan, error) {
	return e.selectLoan(ctx, operationGetLoan, e.from(tableLoans).Select(loanColumns...).
		Where(goqu.C("id").Eq(loanID.String())))
}

func (e *Engine) LockLoan(ctx context.Context, loanID uuid.UUID) (library.Loan, error) {
	return e.selectLoan(ctx, operationLockLoan, e.forUpdate(e.from(tableLoans).Select(loanColumns...).
		Where(goqu.C("id").Eq(loanID.String()))))
}

func (e *Engine) selectLoan(ctx context.Context, operation string, ds *goqu.SelectDataset) (library.Loan, error) {
	var loan library.Loan

	err := e.queryOne(ctx, operation, ds, func(rows adapters.DBRows) error {
		var scanErr error
		loan, scanErr = scanLoan(rows)

		return scanErr
	})

	return loan, err
}

// InsertLoan stores a new loan and returns it the way it was stored.
func (e *Engine) InsertLoan(ctx context.Context, loan library.Loan) (library.Loan, error) {
	if err := loan.CheckInvariants(); err != nil {
		return library.Loan{}, err
	}

	loan.LoanDate = library.ToTimestamp(loan.LoanDate)
	loan.DueDate = library.ToTimestamp(loan.DueDate)
	loan.CreatedAt = library.ToTimestamp(loan.CreatedAt)
	if loan.ReturnDate != nil {
		returnDate := library.ToTimestamp(*loan.ReturnDate)
		loan.ReturnDate = &returnDate
	}

	_, err := e.exec(ctx, operationInsertLoan, e.insertInto(tableLoans).Rows(goqu.Record{
		"id":            loan.ID.String(),
		"book_id":       loan.BookID.String(),
		"student_id":    nullableID(loan.StudentID),
		"teacher_id":    nullableID(loan.TeacherID),
		"loan_date":     loan.LoanDate,
		"due_date":      loan.DueDate,
		"return_date":   nullableTime(loan.ReturnDate),
		"status":        string(loan.Status),
		"renewal_count": loan.RenewalCount,
		"book_title":    nullableString(loan.BookTitle),
		"book_author":   nullableString(loan.BookAuthor),
		"borrower_name": nullableString(loan.BorrowerName),
		"created_at":    loan.CreatedAt,
	}))
	if err != nil {
		return library.Loan{}, err
	}

	return loan, nil
}

// UpdateLoan applies update and returns the loan as stored afterward.
// A guarded update that matches no row fails with library.ErrConcurrencyConflict.
func (e *Engine) UpdateLoan(ctx context.Context, loanID uuid.UUID, update library.LoanUpdate) (library.Loan, error) {
	if update.IsEmpty() {
		return e.GetLoan(ctx, loanID)
	}

	record := goqu.Record{}
	if update.DueDate != nil {
		record["due_date"] = library.ToTimestamp(*update.DueDate)
	}
	if update.ReturnDate != nil {
		record["return_date"] = library.ToTimestamp(*update.ReturnDate)
	}
	if update.Status != nil {
		record["status"] = string(*update.Status)
	}
	if update.RenewalCount != nil {
		record["renewal_count"] = *update.RenewalCount
	}

	where := []exp.Expression{goqu.C("id").Eq(loanID.String())}
	if update.ExpectedStatus != "" {
		where = append(where, goqu.C("status").Eq(string(update.ExpectedStatus)))
	}

	affected, err := e.exec(ctx, operationUpdateLoan, e.update(tableLoans).Set(record).Where(where...))
	if err != nil {
		return library.Loan{}, err
	}

	loan, err := e.GetLoan(ctx, loanID)
	if err != nil {
		return library.Loan{}, err
	}

	if affected == 0 {
		return library.Loan{}, library.ErrConcurrencyConflict
	}

	return loan, nil
}

// ListLoans returns the loans matching filter, newest first.
func (e *Engine) ListLoans(ctx context.Context, filter library.LoanFilter) ([]library.Loan, error) {
	ds := e.from(tableLoans).Select(loanColumns...).
		Where(loanFilterExpressions(filter)...).
		Order(goqu.C("loan_date").Desc(), goqu.C("id").Asc())

	if limit := filter.Limit(); limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	loans := make([]library.Loan, 0)

	err := e.queryRows(ctx, operationListLoans, ds, func(rows adapters.DBRows) error {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return scanErr
		}

		loans = append(loans, loan)

		return nil
	})

	return loans, err
}

func loanFilterExpressions(filter library.LoanFilter) []exp.Expression {
	where := make([]exp.Expression, 0)

	if bookID, ok := filter.BookID(); ok {
		where = append(where, goqu.C("book_id").Eq(bookID.String()))
	}

	if borrower, ok := filter.Borrower(); ok {
		column := "student_id"
		if borrower.Kind == library.BorrowerTeacher {
			column = "teacher_id"
		}

		where = append(where, goqu.C(column).Eq(borrower.ID.String()))
	}

	if status, ok := filter.Status(); ok {
		where = append(where, goqu.C("status").Eq(string(status)))
	}

	where = appendRange(where, "due_date", filter.DueFrom(), filter.DueUntil())
	where = appendRange(where, "loan_date", filter.LoanedFrom(), filter.LoanedUntil())

	return where
}

func appendRange(where []exp.Expression, column string, from time.Time, until time.Time) []exp.Expression {
	if !from.IsZero() {
		where = append(where, goqu.C(column).Gte(from))
	}

	if !until.IsZero() {
		where = append(where, goqu.C(column).Lt(until))
	}

	return where
}
