// Package loanreport provides the dashboard totals and the aggregates of the reports page.
//
// The aggregates are independent reads, so the handler runs them in parallel with eventual
// consistency. Months without loans are reported with zero loans.
package loanreport
