package openclassgroup

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

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

// Handle executes the command processing workflow with retry logic and returns the class group.
func (h CommandHandler) Handle(ctx context.Context, command Command) (library.ClassGroup, shell.HandlerResult, error) {
	var decision core.DecisionResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		decision, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return library.ClassGroup{}, shell.NewErrorResult(retryMetrics), err
	}

	if rejection := decision.HasError(); rejection != nil {
		shell.RecordRejection(ctx, h.uow, decision.Event, h.logger, h.contextualLogger, commandType)

		return library.ClassGroup{}, shell.NewErrorResult(retryMetrics), rejection
	}

	classGroup := library.ClassGroup{ID: command.ClassGroupID, Name: strings.TrimSpace(command.Name)}

	if decision.IsIdempotent() {
		return classGroup, shell.NewIdempotentResult(retryMetrics), nil
	}

	return classGroup, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.DecisionResult, error) {
	var decision core.DecisionResult

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		exists := false
		if command.ClassGroupID != uuid.Nil {
			var err error
			if exists, err = tx.ClassGroupExists(ctx, command.ClassGroupID); err != nil {
				return err
			}
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(exists, command)

		if decision.IsIdempotent() || decision.HasError() != nil {
			return nil
		}

		event, ok := decision.Event.(core.ClassGroupOpened)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + decision.Event.IsEventType())
		}

		// Persist phase
		if err := tx.InsertClassGroup(ctx, library.ClassGroup{ID: command.ClassGroupID, Name: event.Name}); err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return decision, err
}
