package returnloan

import (
	"context"
	"errors"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
)

// CommandHandler orchestrates the command processing workflow with pure business logic and retry.
type CommandHandler struct {
	uow              library.UnitOfWork
	retryOptions     []shell.RetryOption
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithLogger sets the logger for counter drift warnings.
func WithLogger(logger shell.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(h *CommandHandler) {
		h.contextualLogger = logger
	}
}

// WithMetrics sets the collector for the drift repair counter.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(h *CommandHandler) {
		h.metricsCollector = collector
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(uow library.UnitOfWork, opts ...Option) CommandHandler {
	handler := CommandHandler{
		uow: uow,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command processing workflow with retry logic and returns the loan as stored.
// Returning a returned loan again yields the stored loan with an idempotent result.
func (h CommandHandler) Handle(ctx context.Context, command Command) (library.Loan, shell.HandlerResult, error) {
	var loan library.Loan
	var decision core.DecisionResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		loan, decision, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return library.Loan{}, shell.NewErrorResult(retryMetrics), err
	}

	if rejection := decision.HasError(); rejection != nil {
		shell.RecordRejection(ctx, h.uow, decision.Event, h.logger, h.contextualLogger, commandType)

		return library.Loan{}, shell.NewErrorResult(retryMetrics), rejection
	}

	if decision.IsIdempotent() {
		return loan, shell.NewIdempotentResult(retryMetrics), nil
	}

	return loan, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (library.Loan, core.DecisionResult, error) {
	var loan library.Loan
	var decision core.DecisionResult

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		s, book, stored, err := loadState(ctx, tx, command)
		if err != nil {
			return err
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(s, command)

		if decision.IsIdempotent() {
			loan = stored
			return nil
		}

		if decision.HasError() != nil {
			return nil // nothing to write, the rejection is recorded after this unit of work
		}

		event, ok := decision.Event.(core.LoanReturned)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + decision.Event.IsEventType())
		}

		// Persist phase
		if derived := book.TotalCopies - s.ActiveLoans; book.AvailableCopies != derived {
			shell.RecordAvailabilityDriftRepaired(
				ctx, h.metricsCollector, h.logger, h.contextualLogger, commandType, book.ID.String(), book.AvailableCopies, derived,
			)
		}

		returned := library.LoanReturned
		loan, err = tx.UpdateLoan(ctx, command.LoanID, library.LoanUpdate{
			ReturnDate:     &event.ReturnDate,
			Status:         &returned,
			ExpectedStatus: library.LoanActive,
		})
		if err != nil {
			return err
		}

		if err = tx.SetAvailableCopies(ctx, book.ID, event.AvailableCopiesAfter); err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return loan, decision, err
}

// loadState locks the book before the loan, the order every lifecycle handler uses.
func loadState(ctx context.Context, tx library.Tx, command Command) (State, library.Book, library.Loan, error) {
	var s State

	unlocked, err := tx.GetLoan(ctx, command.LoanID)
	switch {
	case errors.Is(err, library.ErrNotFound):
		return s, library.Book{}, library.Loan{}, nil
	case err != nil:
		return s, library.Book{}, library.Loan{}, err
	}

	book, err := tx.LockBook(ctx, unlocked.BookID)
	if err != nil {
		return s, library.Book{}, library.Loan{}, err
	}

	loan, err := tx.LockLoan(ctx, command.LoanID)
	if err != nil {
		return s, library.Book{}, library.Loan{}, err
	}

	s.LoanFound = true
	s.LoanReturned = !loan.IsActive()
	s.BookID = book.ID
	s.TotalCopies = book.TotalCopies

	if s.ActiveLoans, err = tx.CountActiveLoans(ctx, book.ID); err != nil {
		return s, library.Book{}, library.Loan{}, err
	}

	return s, book, loan, nil
}
