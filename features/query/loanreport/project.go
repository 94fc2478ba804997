package loanreport

import (
	"math"
	"time"
)

const monthLayout = "2006-01"

// ProjectLoansPerMonth counts loanDates per calendar month (UTC) for the months of query.
// This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: The loan dates since the first month of the report
//	WHEN: LoanReport query is executed
//	THEN: One MonthCount per month is returned, oldest first
//	INCLUDES: Months without loans, with zero loans
//	EXCLUDES: Loan dates before the first month or after the current month
func ProjectLoansPerMonth(loanDates []time.Time, query Query) []MonthCount {
	first := query.FirstMonth()
	months := make([]MonthCount, query.Months)
	index := make(map[string]int, query.Months)

	for i := range months {
		key := first.AddDate(0, i, 0).Format(monthLayout)
		months[i] = MonthCount{Month: key}
		index[key] = i
	}

	for _, loanDate := range loanDates {
		if i, ok := index[loanDate.UTC().Format(monthLayout)]; ok {
			months[i].Loans++
		}
	}

	return months
}

// SummarizeMonths derives the month over month comparison of a monthly series, oldest first.
// The record is the earliest month with the most loans.
func SummarizeMonths(months []MonthCount) MonthlySummary {
	if len(months) == 0 {
		return MonthlySummary{}
	}

	summary := MonthlySummary{
		Current:  months[len(months)-1],
		Previous: months[len(months)-1],
		Record:   months[0],
	}

	if len(months) > 1 {
		summary.Previous = months[len(months)-2]
	}

	total := 0
	for _, month := range months {
		total += month.Loans

		if month.Loans > summary.Record.Loans {
			summary.Record = month
		}
	}

	summary.MonthlyAverage = int(math.Round(float64(total) / float64(len(months))))

	return summary
}
