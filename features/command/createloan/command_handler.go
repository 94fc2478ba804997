package createloan

import (
	"context"
	"errors"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
)

// CommandHandler orchestrates the command processing workflow with pure business logic and retry.
// It runs Load -> Decide -> Persist inside one unit of work.
// External wrappers handle all observability concerns except the drift and snapshot warnings,
// which only the handler can see.
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

// WithLogger sets the logger for warnings about snapshots and counter drift.
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

type outcome struct {
	loan     library.Loan
	decision core.DecisionResult
}

// Handle executes the command processing workflow with retry logic and returns the created loan.
// A repeated command returns the stored loan with an idempotent result.
// A rejected command is recorded in the audit trail in a transaction of its own.
func (h CommandHandler) Handle(ctx context.Context, command Command) (library.Loan, shell.HandlerResult, error) {
	var result outcome

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		result, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return library.Loan{}, shell.NewErrorResult(retryMetrics), err
	}

	if rejection := result.decision.HasError(); rejection != nil {
		shell.RecordRejection(ctx, h.uow, result.decision.Event, h.logger, h.contextualLogger, commandType)

		return library.Loan{}, shell.NewErrorResult(retryMetrics), rejection
	}

	if result.decision.IsIdempotent() {
		return result.loan, shell.NewIdempotentResult(retryMetrics), nil
	}

	return result.loan, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (outcome, error) {
	var result outcome

	borrowerName := h.lookupBorrowerName(ctx, command)

	ctx = library.WithStrongConsistency(ctx)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		// Load phase
		s, book, existing, err := h.loadState(ctx, tx, command)
		if err != nil {
			return err
		}

		// Business logic phase - delegate to pure core function
		result.decision = Decide(s, command)

		if result.decision.IsIdempotent() {
			result.loan = existing
			return nil
		}

		if result.decision.HasError() != nil {
			return nil // nothing to write, the rejection is recorded after this unit of work
		}

		event, ok := result.decision.Event.(core.LoanCreated)
		if !ok {
			return errors.New("unexpected event for " + commandType + ": " + result.decision.Event.IsEventType())
		}

		// Persist phase
		if stored := book.AvailableCopies; stored != s.Available() {
			shell.RecordAvailabilityDriftRepaired(
				ctx, h.metricsCollector, h.logger, h.contextualLogger, commandType, book.ID.String(), stored, s.Available(),
			)
		}

		result.loan, err = tx.InsertLoan(ctx, loanFrom(event, command, book, borrowerName))
		if err != nil {
			return err
		}

		if err = tx.SetAvailableCopies(ctx, book.ID, event.AvailableCopiesAfter); err != nil {
			return err
		}

		return shell.AppendLifecycleEvent(ctx, tx, event)
	})

	return result, err
}

func (h CommandHandler) loadState(
	ctx context.Context,
	tx library.Tx,
	command Command,
) (State, library.Book, library.Loan, error) {

	var s State

	if _, ok := validate(command); !ok {
		return s, library.Book{}, library.Loan{}, nil
	}

	book, err := tx.LockBook(ctx, command.BookID)
	switch {
	case errors.Is(err, library.ErrNotFound):
		return s, library.Book{}, library.Loan{}, nil
	case err != nil:
		return s, library.Book{}, library.Loan{}, err
	}

	s.BookFound = true
	s.BookRemoved = book.IsDeleted()
	s.TotalCopies = book.TotalCopies

	existing, err := tx.GetLoan(ctx, command.LoanID)
	switch {
	case err == nil:
		s.LoanExists = true
		s.ExistingBookID = existing.BookID
		s.ExistingBorrower = existing.Borrower()
		return s, book, existing, nil
	case !errors.Is(err, library.ErrNotFound):
		return s, library.Book{}, library.Loan{}, err
	}

	if s.ActiveLoans, err = tx.CountActiveLoans(ctx, command.BookID); err != nil {
		return s, library.Book{}, library.Loan{}, err
	}

	if s.BorrowerFound, err = tx.BorrowerExists(ctx, command.Borrower()); err != nil {
		return s, library.Book{}, library.Loan{}, err
	}

	return s, book, library.Loan{}, nil
}

// lookupBorrowerName reads the name snapshot in a read of its own, outside the checkout transaction.
// A failed lookup is logged and the loan is stored without the name.
func (h CommandHandler) lookupBorrowerName(ctx context.Context, command Command) *string {
	if _, ok := validate(command); !ok {
		return nil
	}

	var name string

	err := h.uow.WithinTx(library.WithEventualConsistency(ctx), func(ctx context.Context, tx library.Tx) error {
		var err error
		name, err = tx.GetBorrowerName(ctx, command.Borrower())

		return err
	})

	switch {
	case errors.Is(err, library.ErrNotFound):
		return nil // Decide rejects the unknown borrower
	case err != nil:
		shell.LogSnapshotLookupFailed(ctx, h.logger, h.contextualLogger, commandType, command.BookID.String(), err)
		return nil
	}

	return &name
}

// loanFrom builds the loan row described by event, with the display snapshots.
func loanFrom(
	event core.LoanCreated,
	command Command,
	book library.Book,
	borrowerName *string,
) library.Loan {

	title, author := book.Title, book.Author
	borrowerID := command.BorrowerID

	loan := library.Loan{
		ID:           command.LoanID,
		BookID:       command.BookID,
		LoanDate:     event.LoanDate,
		DueDate:      event.DueDate,
		Status:       library.LoanActive,
		BookTitle:    &title,
		BookAuthor:   &author,
		BorrowerName: borrowerName,
		CreatedAt:    event.OccurredAt,
	}

	if command.BorrowerKind == library.BorrowerTeacher {
		loan.TeacherID = &borrowerID
	} else {
		loan.StudentID = &borrowerID
	}

	return loan
}
