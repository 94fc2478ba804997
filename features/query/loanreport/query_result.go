package loanreport

import (
	"github.com/schoollibrary/circulation/library"
)

// MonthCount is the number of loans made in one calendar month, formatted as YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Loans int    `json:"loans"`
}

// MonthlySummary compares the current month with the previous one and the whole series.
type MonthlySummary struct {
	Current        MonthCount `json:"current"`
	Previous       MonthCount `json:"previous"`
	MonthlyAverage int        `json:"monthly_average"`
	Record         MonthCount `json:"record"`
}

// LoanReport represents the query result.
type LoanReport struct {
	Totals                library.Totals                `json:"totals"`
	MostBorrowedBooks     []library.BookLoanCount       `json:"most_borrowed_books"`
	LoansPerClassGroup    []library.ClassGroupLoanCount `json:"loans_per_class_group"`
	LoansPerMonth         []MonthCount                  `json:"loans_per_month"`
	Monthly               MonthlySummary                `json:"monthly"`
	StudentsWithMostLoans []library.StudentLoanCount    `json:"students_with_most_loans"`
}
