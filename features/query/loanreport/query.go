package loanreport

import (
	"time"
)

const (
	queryType = "LoanReport"

	// DefaultMonths is the length of the monthly series when a query does not name one.
	DefaultMonths = 6

	// MaxMonths bounds the monthly series.
	MaxMonths = 36

	// TopN is the length of the rankings.
	TopN = 10
)

// Query represents the input for the loan report at Now covering the last Months calendar months.
type Query struct {
	Now    time.Time
	Months int
}

// BuildQuery creates a new Query. months is clamped into [1, MaxMonths], 0 means DefaultMonths.
func BuildQuery(now time.Time, months int) Query {
	switch {
	case months == 0:
		months = DefaultMonths
	case months < 1:
		months = 1
	case months > MaxMonths:
		months = MaxMonths
	}

	return Query{
		Now:    now.UTC(),
		Months: months,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// FirstMonth returns the start of the oldest month in the report.
func (q Query) FirstMonth() time.Time {
	current := time.Date(q.Now.Year(), q.Now.Month(), 1, 0, 0, 0, 0, time.UTC)

	return current.AddDate(0, -(q.Months - 1), 0)
}
