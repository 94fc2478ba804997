package library

import (
	"time"
)

const (
	// LoanPeriod is the fixed lending period for new loans and renewals.
	LoanPeriod = 14 * 24 * time.Hour

	// RenewalWindow is how close to its due date an active loan must be to be renewable.
	RenewalWindow = 3 * 24 * time.Hour
)

// ToTimestamp normalizes t to UTC with microsecond precision, which is what Postgres stores.
func ToTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// DueDateFrom returns the due date of a loan (or renewal) made at t.
func DueDateFrom(t time.Time) time.Time {
	return ToTimestamp(t).Add(LoanPeriod)
}

// IsRenewable reports whether a loan due at dueDate may be renewed at now:
// it is overdue already, or it falls due within RenewalWindow.
func IsRenewable(dueDate time.Time, now time.Time) bool {
	return !dueDate.After(now.Add(RenewalWindow))
}

// DaysOverdue returns the number of started days a loan due at dueDate is late at now.
func DaysOverdue(dueDate time.Time, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}

	late := now.Sub(dueDate)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		days++
	}

	return days
}
