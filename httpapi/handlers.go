package httpapi

import (
	"github.com/schoollibrary/circulation/features/command/addbook"
	"github.com/schoollibrary/circulation/features/command/createloan"
	"github.com/schoollibrary/circulation/features/command/openclassgroup"
	"github.com/schoollibrary/circulation/features/command/recomputeavailability"
	"github.com/schoollibrary/circulation/features/command/registerborrower"
	"github.com/schoollibrary/circulation/features/command/removebook"
	"github.com/schoollibrary/circulation/features/command/renewloan"
	"github.com/schoollibrary/circulation/features/command/returnloan"
	"github.com/schoollibrary/circulation/features/query/loanreport"
	"github.com/schoollibrary/circulation/features/query/overdueloans"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
	"github.com/schoollibrary/circulation/shell/observable"
)

// Handlers are the command and query handlers the routes dispatch to.
type Handlers struct {
	CreateLoan            shell.CoreCommandHandler[createloan.Command, library.Loan]
	ReturnLoan            shell.CoreCommandHandler[returnloan.Command, library.Loan]
	RenewLoan             shell.CoreCommandHandler[renewloan.Command, library.Loan]
	RecomputeAvailability shell.CoreCommandHandler[recomputeavailability.Command, library.Book]
	AddBook               shell.CoreCommandHandler[addbook.Command, library.Book]
	RemoveBook            shell.CoreCommandHandler[removebook.Command, struct{}]
	RegisterBorrower      shell.CoreCommandHandler[registerborrower.Command, registerborrower.Borrower]
	OpenClassGroup        shell.CoreCommandHandler[openclassgroup.Command, library.ClassGroup]
	OverdueLoans          shell.CoreQueryHandler[overdueloans.Query, overdueloans.OverdueLoans]
	LoanReport            shell.CoreQueryHandler[loanreport.Query, loanreport.LoanReport]
}

// Observers are the observability backends of the handlers. All are optional.
type Observers struct {
	Logger           shell.Logger
	ContextualLogger shell.ContextualLogger
	Metrics          shell.MetricsCollector
	Tracing          shell.TracingCollector
}

// BuildHandlers creates every handler on store, wrapped with the observable decorators.
func BuildHandlers(store library.Store, observers Observers, retry shell.RetrySettings) (Handlers, error) {
	var handlers Handlers
	var err error

	retryOptions := func(commandType string) []shell.RetryOption {
		options := retry.Options()
		if observers.Metrics != nil {
			options = append(options, shell.WithMetrics(observers.Metrics, commandType))
		}

		return options
	}

	if handlers.CreateLoan, err = wrapCommand[createloan.Command, library.Loan](
		createloan.NewCommandHandler(store,
			createloan.WithRetryOptions(retryOptions(createloan.Command{}.CommandType())...),
			createloan.WithLogger(observers.Logger),
			createloan.WithContextualLogger(observers.ContextualLogger),
			createloan.WithMetrics(observers.Metrics),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.ReturnLoan, err = wrapCommand[returnloan.Command, library.Loan](
		returnloan.NewCommandHandler(store,
			returnloan.WithRetryOptions(retryOptions(returnloan.Command{}.CommandType())...),
			returnloan.WithLogger(observers.Logger),
			returnloan.WithContextualLogger(observers.ContextualLogger),
			returnloan.WithMetrics(observers.Metrics),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.RenewLoan, err = wrapCommand[renewloan.Command, library.Loan](
		renewloan.NewCommandHandler(store,
			renewloan.WithRetryOptions(retryOptions(renewloan.Command{}.CommandType())...),
			renewloan.WithLogger(observers.Logger),
			renewloan.WithContextualLogger(observers.ContextualLogger),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.RecomputeAvailability, err = wrapCommand[recomputeavailability.Command, library.Book](
		recomputeavailability.NewCommandHandler(store,
			recomputeavailability.WithRetryOptions(retryOptions(recomputeavailability.Command{}.CommandType())...),
			recomputeavailability.WithLogger(observers.Logger),
			recomputeavailability.WithContextualLogger(observers.ContextualLogger),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.AddBook, err = wrapCommand[addbook.Command, library.Book](
		addbook.NewCommandHandler(store,
			addbook.WithRetryOptions(retryOptions(addbook.Command{}.CommandType())...),
			addbook.WithLogger(observers.Logger),
			addbook.WithContextualLogger(observers.ContextualLogger),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.RemoveBook, err = wrapCommand[removebook.Command, struct{}](
		removebook.NewCommandHandler(store,
			removebook.WithRetryOptions(retryOptions(removebook.Command{}.CommandType())...),
			removebook.WithLogger(observers.Logger),
			removebook.WithContextualLogger(observers.ContextualLogger),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.RegisterBorrower, err = wrapCommand[registerborrower.Command, registerborrower.Borrower](
		registerborrower.NewCommandHandler(store,
			registerborrower.WithRetryOptions(retryOptions(registerborrower.Command{}.CommandType())...),
			registerborrower.WithLogger(observers.Logger),
			registerborrower.WithContextualLogger(observers.ContextualLogger),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.OpenClassGroup, err = wrapCommand[openclassgroup.Command, library.ClassGroup](
		openclassgroup.NewCommandHandler(store,
			openclassgroup.WithRetryOptions(retryOptions(openclassgroup.Command{}.CommandType())...),
			openclassgroup.WithLogger(observers.Logger),
			openclassgroup.WithContextualLogger(observers.ContextualLogger),
		), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.OverdueLoans, err = wrapQuery[overdueloans.Query, overdueloans.OverdueLoans](
		overdueloans.NewQueryHandler(store), observers); err != nil {
		return Handlers{}, err
	}

	if handlers.LoanReport, err = wrapQuery[loanreport.Query, loanreport.LoanReport](
		loanreport.NewQueryHandler(store), observers); err != nil {
		return Handlers{}, err
	}

	return handlers, nil
}

func wrapCommand[C shell.Command, R any](
	handler shell.CoreCommandHandler[C, R],
	observers Observers,
) (shell.CoreCommandHandler[C, R], error) {

	return observable.NewCommandWrapper[C, R](
		handler,
		observable.WithCommandMetrics[C, R](observers.Metrics),
		observable.WithCommandTracing[C, R](observers.Tracing),
		observable.WithCommandContextualLogging[C, R](observers.ContextualLogger),
		observable.WithCommandLogging[C, R](observers.Logger),
	)
}

func wrapQuery[Q shell.Query, R any](
	handler shell.CoreQueryHandler[Q, R],
	observers Observers,
) (shell.CoreQueryHandler[Q, R], error) {

	return observable.NewQueryWrapper[Q, R](
		handler,
		observable.WithQueryMetrics[Q, R](observers.Metrics),
		observable.WithQueryTracing[Q, R](observers.Tracing),
		observable.WithQueryContextualLogging[Q, R](observers.ContextualLogger),
		observable.WithQueryLogging[Q, R](observers.Logger),
	)
}
