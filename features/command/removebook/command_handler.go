package removebook

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

// Handle executes the command processing workflow with retry logic.
func (h CommandHandler) Handle(ctx context.Context, command Command) (struct{}, shell.HandlerResult, error) {
	var decision core.DecisionResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		decision, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return struct{}{}, shell.NewErrorResult(retryMetrics), err
	}

	if rejection := decision.HasError(); rejection != nil {
		shell.RecordRejection(ctx, h.uow, decision.Event, h.logger, h.contextualLogger, commandType)

		return struct{}{}, shell.NewErrorResult(retryMetrics), rejection
	}

	if decision.IsIdempotent() {
		return struct{}{}, shell.NewIdempotentResult(retryMetrics), nil
	}

	return struct{}{}, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.DecisionResult, error) {
	var decision core.DecisionResult

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		var s State

		book, err := tx.LockBook(ctx, command.BookID)
		switch {
		case errors.Is(err, library.ErrNotFound):
		case err != nil:
			return err
		default:
			s.BookFound = true
			s.BookRemoved = book.IsDeleted()

			if s.ActiveLoans, err = tx.CountActiveLoans(ctx, command.BookID); err != nil {
				return err
			}
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(s, command)

		if !decision.HasEventToRecord() || decision.HasError() != nil {
			return nil
		}

		// Persist phase
		if err = tx.SoftDeleteBook(ctx, command.BookID, command.OccurredAt); err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, decision.Event)
	})

	return decision, err
}
