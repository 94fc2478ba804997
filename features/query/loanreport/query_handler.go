package loanreport

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/schoollibrary/circulation/library"
)

// QueryHandler orchestrates the complete query processing workflow.
// It reads the aggregates from the report source and projects the monthly series.
type QueryHandler struct {
	source library.ReportSource
}

// NewQueryHandler creates a new QueryHandler with the provided ReportSource dependency.
func NewQueryHandler(source library.ReportSource) QueryHandler {
	return QueryHandler{
		source: source,
	}
}

// Handle executes the complete query processing workflow: Query -> Project.
// The first failing read cancels the others and its error is returned.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoanReport, error) {
	var report LoanReport
	var loanDates []time.Time

	ctx = library.WithEventualConsistency(ctx)
	group, ctx := errgroup.WithContext(ctx)

	// Query phase
	group.Go(func() error {
		var err error
		report.Totals, err = h.source.Totals(ctx, query.Now)

		return err
	})

	group.Go(func() error {
		var err error
		report.MostBorrowedBooks, err = h.source.MostBorrowedBooks(ctx, TopN)

		return err
	})

	group.Go(func() error {
		var err error
		report.LoansPerClassGroup, err = h.source.LoansPerClassGroup(ctx)

		return err
	})

	group.Go(func() error {
		var err error
		loanDates, err = h.source.LoanDatesSince(ctx, query.FirstMonth())

		return err
	})

	group.Go(func() error {
		var err error
		report.StudentsWithMostLoans, err = h.source.StudentsWithMostLoans(ctx, TopN)

		return err
	})

	if err := group.Wait(); err != nil {
		return LoanReport{}, err
	}

	// Projection phase
	report.LoansPerMonth = ProjectLoansPerMonth(loanDates, query)
	report.Monthly = SummarizeMonths(report.LoansPerMonth)

	return report, nil
}
