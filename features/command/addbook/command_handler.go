package addbook

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
		existing, err := tx.GetBook(ctx, command.BookID)
		if err != nil && !errors.Is(err, library.ErrNotFound) {
			return err
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(err == nil, command)

		if decision.IsIdempotent() {
			book = existing
			return nil
		}

		if decision.HasError() != nil {
			return nil
		}

		event, ok := decision.Event.(core.BookAddedToCatalog)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + decision.Event.IsEventType())
		}

		// Persist phase
		book = bookFrom(command, event)
		if err = tx.InsertBook(ctx, book); err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return book, decision, err
}

func bookFrom(command Command, event core.BookAddedToCatalog) library.Book {
	details := command.Details

	return library.Book{
		ID:              command.BookID,
		Title:           event.Title,
		Author:          event.Author,
		Publisher:       details.Publisher,
		Edition:         details.Edition,
		PublicationYear: details.PublicationYear,
		TotalCopies:     event.TotalCopies,
		AvailableCopies: event.TotalCopies,
		ShelfLifeYears:  details.ShelfLifeYears,
		Category:        details.Category,
		Grade:           details.Grade,
		Stage:           details.Stage,
		CreatedAt:       event.OccurredAt,
	}
}
