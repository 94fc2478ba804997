package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/features/query/overdueloans"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
)

const (
	// DefaultInterval is the time between two notifier passes.
	DefaultInterval = 24 * time.Hour

	notificationsMetric = "notifier_notifications_total"
)

// Report counts what one notifier pass did. Skipped notifications had been sent the same day already.
type Report struct {
	Overdue int
	DueSoon int
	Skipped int
}

// Notifier tells borrowers about overdue loans and loans falling due soon.
// The store keeps at most one notification per loan, kind and day, so running it more often is safe.
type Notifier struct {
	overdue          shell.CoreQueryHandler[overdueloans.Query, overdueloans.OverdueLoans]
	store            library.NotificationStore
	interval         time.Duration
	dueSoonWithin    time.Duration
	now              func() time.Time
	newID            func() uuid.UUID
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
	metricsCollector shell.MetricsCollector
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithInterval sets the time between two passes. Non-positive values keep the default.
func WithInterval(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval > 0 {
			n.interval = interval
		}
	}
}

// WithDueSoonWithin sets how far ahead a due date counts as due soon.
func WithDueSoonWithin(window time.Duration) Option {
	return func(n *Notifier) {
		n.dueSoonWithin = window
	}
}

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		n.now = now
	}
}

// WithIDGenerator sets the generator for notification ids.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(n *Notifier) {
		n.newID = newID
	}
}

// WithLogger sets the logger for pass summaries and failures.
func WithLogger(logger shell.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(n *Notifier) {
		n.contextualLogger = logger
	}
}

// WithMetrics sets the collector for the notifications counter.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(n *Notifier) {
		n.metricsCollector = collector
	}
}

// NewNotifier creates a Notifier reading overdue loans through the given query handler.
func NewNotifier(
	overdue shell.CoreQueryHandler[overdueloans.Query, overdueloans.OverdueLoans],
	store library.NotificationStore,
	opts ...Option,
) *Notifier {

	n := &Notifier{
		overdue:       overdue,
		store:         store,
		interval:      DefaultInterval,
		dueSoonWithin: overdueloans.DefaultDueSoonWithin,
		now:           time.Now,
		newID:         uuid.New,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Run checks once right away and then every interval, until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		if _, err := n.Check(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			n.log(ctx, "error", "overdue check failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check does one notifier pass.
func (n *Notifier) Check(ctx context.Context) (Report, error) {
	var report Report

	now := n.now()

	view, err := n.overdue.Handle(ctx, overdueloans.BuildQuery(now, n.dueSoonWithin))
	if err != nil {
		return report, err
	}

	for _, loan := range view.Overdue {
		message := fmt.Sprintf("%q is %d day(s) overdue, please return it.", loan.BookTitle, loan.DaysOverdue)

		stored, err := n.notify(ctx, loan, library.NotificationOverdue, message, now)
		if err != nil {
			return report, err
		}

		report.count(stored, &report.Overdue)
	}

	for _, loan := range view.DueSoon {
		message := fmt.Sprintf("%q is due on %s.", loan.BookTitle, loan.DueDate.Format("02 Jan 2006"))

		stored, err := n.notify(ctx, loan, library.NotificationDueSoon, message, now)
		if err != nil {
			return report, err
		}

		report.count(stored, &report.DueSoon)
	}

	n.log(ctx, "info", "overdue check done",
		"overdue", report.Overdue, "due_soon", report.DueSoon, "skipped", report.Skipped)

	return report, nil
}

func (r *Report) count(stored bool, counter *int) {
	if stored {
		*counter++
		return
	}

	r.Skipped++
}

func (n *Notifier) notify(
	ctx context.Context,
	loan overdueloans.LoanInfo,
	kind library.NotificationKind,
	message string,
	now time.Time,
) (bool, error) {

	stored, err := n.store.RecordNotification(ctx, library.Notification{
		ID:        n.newID(),
		LoanID:    loan.LoanID,
		Borrower:  loan.Borrower,
		Kind:      kind,
		Message:   message,
		CreatedAt: library.ToTimestamp(now),
	})
	if err != nil {
		return false, err
	}

	if stored && n.metricsCollector != nil {
		labels := map[string]string{"kind": string(kind)}

		if contextual, ok := n.metricsCollector.(shell.ContextualMetricsCollector); ok {
			contextual.IncrementCounterContext(ctx, notificationsMetric, labels)
		} else {
			n.metricsCollector.IncrementCounter(notificationsMetric, labels)
		}
	}

	return stored, nil
}

func (n *Notifier) log(ctx context.Context, level string, msg string, args ...any) {
	if n.contextualLogger != nil {
		if level == "error" {
			n.contextualLogger.ErrorContext(ctx, msg, args...)
		} else {
			n.contextualLogger.InfoContext(ctx, msg, args...)
		}

		return
	}

	if n.logger != nil {
		if level == "error" {
			n.logger.Error(msg, args...)
		} else {
			n.logger.Info(msg, args...)
		}
	}
}
