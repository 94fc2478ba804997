package registerborrower

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
)

// Borrower is the registered student or teacher.
type Borrower struct {
	Kind               library.BorrowerKind `json:"kind"`
	ID                 uuid.UUID            `json:"id"`
	Name               string               `json:"name"`
	RegistrationNumber string               `json:"registration_number,omitempty"`
	ClassGroupID       *uuid.UUID           `json:"class_group_id,omitempty"`
}

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

// Handle executes the command processing workflow with retry logic and returns the registered borrower.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Borrower, shell.HandlerResult, error) {
	var borrower Borrower
	var decision core.DecisionResult

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		borrower, decision, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Borrower{}, shell.NewErrorResult(retryMetrics), err
	}

	if rejection := decision.HasError(); rejection != nil {
		shell.RecordRejection(ctx, h.uow, decision.Event, h.logger, h.contextualLogger, commandType)

		return Borrower{}, shell.NewErrorResult(retryMetrics), rejection
	}

	if decision.IsIdempotent() {
		return borrower, shell.NewIdempotentResult(retryMetrics), nil
	}

	return borrower, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Borrower, core.DecisionResult, error) {
	var borrower Borrower
	var decision core.DecisionResult

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		s, err := loadState(ctx, tx, command)
		if err != nil {
			return err
		}

		// Business logic phase - delegate to pure core function
		decision = Decide(s, command)

		if decision.IsIdempotent() {
			borrower = Borrower{Kind: command.BorrowerKind, ID: command.BorrowerID}
			borrower.Name, err = tx.GetBorrowerName(ctx, library.BorrowerRef{Kind: command.BorrowerKind, ID: command.BorrowerID})

			return err
		}

		if decision.HasError() != nil {
			return nil
		}

		event, ok := decision.Event.(core.BorrowerRegistered)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + decision.Event.IsEventType())
		}

		// Persist phase
		borrower = Borrower{
			Kind:               command.BorrowerKind,
			ID:                 command.BorrowerID,
			Name:               event.Name,
			RegistrationNumber: event.RegistrationNumber,
		}

		if command.BorrowerKind == library.BorrowerTeacher {
			err = tx.InsertTeacher(ctx, library.Teacher{ID: borrower.ID, Name: borrower.Name, CreatedAt: event.OccurredAt})
		} else {
			borrower.ClassGroupID = command.ClassGroupID
			err = tx.InsertStudent(ctx, library.Student{
				ID:                 borrower.ID,
				Name:               borrower.Name,
				RegistrationNumber: borrower.RegistrationNumber,
				ClassGroupID:       borrower.ClassGroupID,
				CreatedAt:          event.OccurredAt,
			})
		}

		if err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return borrower, decision, err
}

func loadState(ctx context.Context, tx library.Tx, command Command) (State, error) {
	var s State
	var err error

	if !command.BorrowerKind.Valid() || command.BorrowerID == uuid.Nil {
		return s, nil
	}

	if s.BorrowerExists, err = tx.BorrowerExists(ctx, library.BorrowerRef{Kind: command.BorrowerKind, ID: command.BorrowerID}); err != nil {
		return s, err
	}

	if command.ClassGroupID != nil {
		if s.ClassGroupFound, err = tx.ClassGroupExists(ctx, *command.ClassGroupID); err != nil {
			return s, err
		}
	}

	return s, nil
}
