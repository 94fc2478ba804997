package renewloan

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
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithLogger sets the logger for rejections that could not be recorded.
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

// Handle executes the command processing workflow with retry logic and returns the renewed loan.
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

	return loan, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (library.Loan, core.DecisionResult, error) {
	var loan library.Loan
	var decision core.DecisionResult

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		var s State

		stored, err := tx.LockLoan(ctx, command.LoanID)
		switch {
		case errors.Is(err, library.ErrNotFound):
		case err != nil:
			return err
		default:
			s = State{
				LoanFound:    true,
				LoanReturned: !stored.IsActive(),
				BookID:       stored.BookID,
				DueDate:      stored.DueDate,
				RenewalCount: stored.RenewalCount,
			}
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(s, command)

		if decision.HasError() != nil {
			return nil // nothing to write, the rejection is recorded after this unit of work
		}

		event, ok := decision.Event.(core.LoanRenewed)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + decision.Event.IsEventType())
		}

		// Persist phase
		loan, err = tx.UpdateLoan(ctx, command.LoanID, library.LoanUpdate{
			DueDate:        &event.NewDueDate,
			RenewalCount:   &event.RenewalCount,
			ExpectedStatus: library.LoanActive,
		})
		if err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return loan, decision, err
}
