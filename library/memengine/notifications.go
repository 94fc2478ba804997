package memengine

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

const notificationDayLayout = "2006-01-02"

func (e *Engine) RecordNotification(_ context.Context, n library.Notification) (bool, error) {
	if !n.Borrower.Kind.Valid() {
		return false, library.Validation("notification needs a borrower")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.loans[n.LoanID]; !ok {
		return false, library.Validation("notification references an unknown loan")
	}

	day := n.CreatedAt.UTC().Format(notificationDayLayout)
	for _, existing := range e.notifications {
		if existing.LoanID == n.LoanID && existing.Kind == n.Kind &&
			existing.CreatedAt.UTC().Format(notificationDayLayout) == day {
			return false, nil
		}
	}

	n.CreatedAt = library.ToTimestamp(n.CreatedAt)
	e.notifications = append(e.notifications, n)

	return true, nil
}

// ListNotifications returns notifications newest first, optionally for one borrower and unread only.
func (e *Engine) ListNotifications(
	_ context.Context,
	borrower *library.BorrowerRef,
	unreadOnly bool,
) ([]library.Notification, error) {

	e.mu.Lock()
	defer e.mu.Unlock()

	notifications := make([]library.Notification, 0)
	for _, n := range e.notifications {
		if borrower != nil && n.Borrower != *borrower {
			continue
		}

		if unreadOnly && n.Read {
			continue
		}

		notifications = append(notifications, n)
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	return notifications, nil
}

func (e *Engine) MarkNotificationRead(_ context.Context, notificationID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.notifications {
		if e.notifications[i].ID == notificationID {
			e.notifications[i].Read = true
			return nil
		}
	}

	return notFound("notification", notificationID)
}
