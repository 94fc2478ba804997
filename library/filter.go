package library

import (
	"time"

	"github.com/google/uuid"
)

/***** LoanFilter *****/

// LoanFilter selects loans for listings and reports.
// Time ranges are half-open: the lower bound is inclusive, the upper bound exclusive.
// A zero time means the bound is not set.
type LoanFilter struct {
	bookID      *uuid.UUID
	borrower    *BorrowerRef
	status      LoanStatus
	dueFrom     time.Time
	dueUntil    time.Time
	loanedFrom  time.Time
	loanedUntil time.Time
	limit       int
}

func (f LoanFilter) BookID() (uuid.UUID, bool) {
	if f.bookID == nil {
		return uuid.Nil, false
	}

	return *f.bookID, true
}

func (f LoanFilter) Borrower() (BorrowerRef, bool) {
	if f.borrower == nil {
		return BorrowerRef{}, false
	}

	return *f.borrower, true
}

func (f LoanFilter) Status() (LoanStatus, bool) {
	return f.status, f.status != ""
}

func (f LoanFilter) DueFrom() time.Time {
	return f.dueFrom
}

func (f LoanFilter) DueUntil() time.Time {
	return f.dueUntil
}

func (f LoanFilter) LoanedFrom() time.Time {
	return f.loanedFrom
}

func (f LoanFilter) LoanedUntil() time.Time {
	return f.loanedUntil
}

// Limit returns the maximum number of loans to return, 0 means unlimited.
func (f LoanFilter) Limit() int {
	return f.limit
}

// Matches reports whether the loan satisfies all criteria of the filter.
func (f LoanFilter) Matches(l Loan) bool {
	if f.bookID != nil && l.BookID != *f.bookID {
		return false
	}

	if f.borrower != nil && l.Borrower() != *f.borrower {
		return false
	}

	if f.status != "" && l.Status != f.status {
		return false
	}

	return inRange(l.DueDate, f.dueFrom, f.dueUntil) && inRange(l.LoanDate, f.loanedFrom, f.loanedUntil)
}

func inRange(t time.Time, from time.Time, until time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}

	if !until.IsZero() && !t.Before(until) {
		return false
	}

	return true
}

/***** LoanFilterBuilder *****/

// LoanFilterBuilder builds a LoanFilter. All criteria are combined with AND.
//
//	filter := library.BuildLoanFilter().
//		ForBook(bookID).
//		WithStatus(library.LoanActive).
//		DueBetween(time.Time{}, now).
//		Finalize()
type LoanFilterBuilder struct {
	filter LoanFilter
}

// BuildLoanFilter starts an empty filter which matches all loans.
func BuildLoanFilter() LoanFilterBuilder {
	return LoanFilterBuilder{}
}

func (b LoanFilterBuilder) ForBook(bookID uuid.UUID) LoanFilterBuilder {
	b.filter.bookID = &bookID
	return b
}

func (b LoanFilterBuilder) ForBorrower(borrower BorrowerRef) LoanFilterBuilder {
	b.filter.borrower = &borrower
	return b
}

func (b LoanFilterBuilder) WithStatus(status LoanStatus) LoanFilterBuilder {
	b.filter.status = status
	return b
}

// DueBetween keeps loans with from <= due date < until. Either bound may be zero.
func (b LoanFilterBuilder) DueBetween(from time.Time, until time.Time) LoanFilterBuilder {
	b.filter.dueFrom = normalizeBound(from)
	b.filter.dueUntil = normalizeBound(until)

	return b
}

// LoanedBetween keeps loans with from <= loan date < until. Either bound may be zero.
func (b LoanFilterBuilder) LoanedBetween(from time.Time, until time.Time) LoanFilterBuilder {
	b.filter.loanedFrom = normalizeBound(from)
	b.filter.loanedUntil = normalizeBound(until)

	return b
}

func (b LoanFilterBuilder) Limit(limit int) LoanFilterBuilder {
	if limit < 0 {
		limit = 0
	}

	b.filter.limit = limit

	return b
}

func (b LoanFilterBuilder) Finalize() LoanFilter {
	return b.filter
}

func normalizeBound(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	return ToTimestamp(t)
}
