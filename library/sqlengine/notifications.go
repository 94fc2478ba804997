package sqlengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	operationNotificationExists = "notification_exists"
	operationRecordNotification = "record_notification"
	operationListNotifications  = "list_notifications"
	operationMarkNotification   = "mark_notification_read"

	notificationDayLayout = "2006-01-02"
)

// RecordNotification stores n unless the loan already got a notification of the same kind
// on the same UTC day. It reports whether a new notification was stored.
func (e *Engine) RecordNotification(ctx context.Context, n library.Notification) (bool, error) {
	day := n.CreatedAt.UTC().Format(notificationDayLayout)

	existing, err := e.queryCount(ctx, operationNotificationExists, e.from(tableNotifications).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C("loan_id").Eq(n.LoanID.String()),
			goqu.C("kind").Eq(string(n.Kind)),
			goqu.C("day").Eq(day),
		))
	if err != nil {
		return false, err
	}

	if existing > 0 {
		return false, nil
	}

	var studentID, teacherID any
	switch n.Borrower.Kind {
	case library.BorrowerStudent:
		studentID = n.Borrower.ID.String()
	case library.BorrowerTeacher:
		teacherID = n.Borrower.ID.String()
	default:
		return false, library.Validation("notification needs a borrower")
	}

	_, err = e.exec(ctx, operationRecordNotification, e.insertInto(tableNotifications).Rows(goqu.Record{
		"id":         n.ID.String(),
		"loan_id":    n.LoanID.String(),
		"student_id": studentID,
		"teacher_id": teacherID,
		"kind":       string(n.Kind),
		"message":    n.Message,
		"is_read":    n.Read,
		"day":        day,
		"created_at": library.ToTimestamp(n.CreatedAt),
	}))

	switch {
	case err == nil:
		return true, nil
	case isUniqueViolation(err):
		// a concurrent run notified first
		return false, nil
	default:
		return false, err
	}
}

// ListNotifications returns notifications newest first, optionally for one borrower and unread only.
func (e *Engine) ListNotifications(
	ctx context.Context,
	borrower *library.BorrowerRef,
	unreadOnly bool,
) ([]library.Notification, error) {

	where := make([]exp.Expression, 0, 2)

	if borrower != nil {
		column := "student_id"
		if borrower.Kind == library.BorrowerTeacher {
			column = "teacher_id"
		}

		where = append(where, goqu.C(column).Eq(borrower.ID.String()))
	}

	if unreadOnly {
		where = append(where, goqu.C("is_read").Eq(false))
	}

	ds := e.from(tableNotifications).
		Select("id", "loan_id", "student_id", "teacher_id", "kind", "message", "is_read", "created_at").
		Where(where...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc())

	notifications := make([]library.Notification, 0)

	err := e.queryRows(ctx, operationListNotifications, ds, func(rows adapters.DBRows) error {
		var (
			n                    library.Notification
			studentID, teacherID uuid.NullUUID
			kind                 string
		)

		if scanErr := rows.Scan(&n.ID, &n.LoanID, &studentID, &teacherID, &kind, &n.Message, &n.Read,
			&n.CreatedAt); scanErr != nil {
			return scanErr
		}

		if studentID.Valid {
			n.Borrower = library.StudentRef(studentID.UUID)
		} else if teacherID.Valid {
			n.Borrower = library.TeacherRef(teacherID.UUID)
		}

		n.Kind = library.NotificationKind(kind)
		n.CreatedAt = n.CreatedAt.UTC()
		notifications = append(notifications, n)

		return nil
	})

	return notifications, err
}

func (e *Engine) MarkNotificationRead(ctx context.Context, notificationID uuid.UUID) error {
	affected, err := e.exec(ctx, operationMarkNotification, e.update(tableNotifications).
		Set(goqu.Record{"is_read": true}).
		Where(goqu.C("id").Eq(notificationID.String())))
	if err != nil {
		return err
	}

	if affected == 0 {
		return errors.Join(library.ErrNotFound, errors.New("notification "+notificationID.String()))
	}

	return nil
}
