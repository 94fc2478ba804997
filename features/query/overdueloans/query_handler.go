package overdueloans

import (
	"context"
	"time"

	"github.com/schoollibrary/circulation/library"
)

// QueryHandler orchestrates the complete query processing workflow.
// It reads the loans from the catalog and delegates projection logic to the pure Project function.
type QueryHandler struct {
	catalog library.Catalog
}

// NewQueryHandler creates a new QueryHandler with the provided Catalog dependency.
func NewQueryHandler(catalog library.Catalog) QueryHandler {
	return QueryHandler{
		catalog: catalog,
	}
}

// Handle executes the complete query processing workflow: Query -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (OverdueLoans, error) {
	// Listings tolerate slightly stale data, a replica may serve them
	ctx = library.WithEventualConsistency(ctx)

	filter := library.BuildLoanFilter().
		WithStatus(library.LoanActive).
		DueBetween(time.Time{}, query.Now.Add(query.DueSoonWithin)).
		Finalize()

	// Query phase
	loans, err := h.catalog.ListLoans(ctx, filter)
	if err != nil {
		return OverdueLoans{}, err
	}

	// Projection phase
	return Project(loans, query), nil
}
