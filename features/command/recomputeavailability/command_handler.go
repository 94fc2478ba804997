package recomputeavailability

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

// Handle executes the command processing workflow with retry logic and returns the book as stored.
func (h CommandHandler) Handle(ctx context.Context, command Command) (library.Book, shell.HandlerResult, error) {
	var book library.Book
	var decision core.DecisionResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		book, decision, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return library.Book{}, shell.NewErrorResult(retryMetrics), err
	}

	if rejection := decision.HasError(); rejection != nil {
		shell.RecordRejection(ctx, h.uow, decision.Event, h.logger, h.contextualLogger, commandType)

		return library.Book{}, shell.NewErrorResult(retryMetrics), rejection
	}

	if decision.IsIdempotent() {
		return book, shell.NewIdempotentResult(retryMetrics), nil
	}

	return book, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (library.Book, core.DecisionResult, error) {
	var book library.Book
	var decision core.DecisionResult

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		var s State

		locked, err := tx.LockBook(ctx, command.BookID)
		switch {
		case errors.Is(err, library.ErrNotFound):
		case err != nil:
			return err
		default:
			s = State{
				BookFound:       true,
				BookRemoved:     locked.IsDeleted(),
				TotalCopies:     locked.TotalCopies,
				AvailableCopies: locked.AvailableCopies,
			}

			if s.ActiveLoans, err = tx.CountActiveLoans(ctx, command.BookID); err != nil {
				return err
			}
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(s, command)
		book = locked

		if decision.IsIdempotent() || decision.HasError() != nil {
			return nil
		}

		event, ok := decision.Event.(core.AvailabilityRecomputed)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + decision.Event.IsEventType())
		}

		// Persist phase
		if err = tx.SetCopies(ctx, command.BookID, event.TotalCopies, event.AvailableCopies); err != nil {
			return err
		}

		book.TotalCopies = event.TotalCopies
		book.AvailableCopies = event.AvailableCopies

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return book, decision, err
}
