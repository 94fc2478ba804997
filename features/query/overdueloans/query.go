package overdueloans

import (
	"time"
)

const (
	queryType = "OverdueLoans"

	// DefaultDueSoonWithin is used when a query does not name a window.
	DefaultDueSoonWithin = 3 * 24 * time.Hour
)

// Query represents the input for listing overdue and soon due loans at Now.
type Query struct {
	Now           time.Time
	DueSoonWithin time.Duration
}

// BuildQuery creates a new Query. A non-positive dueSoonWithin falls back to DefaultDueSoonWithin.
func BuildQuery(now time.Time, dueSoonWithin time.Duration) Query {
	if dueSoonWithin <= 0 {
		dueSoonWithin = DefaultDueSoonWithin
	}

	return Query{
		Now:           now.UTC(),
		DueSoonWithin: dueSoonWithin,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
