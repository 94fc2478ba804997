package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	operationAppendLifecycleRecord = "append_lifecycle_record"
	operationListLifecycleRecords  = "list_lifecycle_records"
)

// AppendLifecycleRecord writes one audit entry. Payload and metadata must be JSON documents.
func (e *Engine) AppendLifecycleRecord(ctx context.Context, record library.LifecycleRecord) error {
	metadata := record.MetadataJSON
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	_, err := e.exec(ctx, operationAppendLifecycleRecord, e.insertInto(tableLifecycleRecords).Rows(goqu.Record{
		"id":          record.ID.String(),
		"event_type":  record.EventType,
		"occurred_at": library.ToTimestamp(record.OccurredAt),
		"loan_id":     nullableID(record.LoanID),
		"book_id":     nullableID(record.BookID),
		"payload":     string(record.PayloadJSON),
		"metadata":    string(metadata),
	}))

	return err
}

// ListLifecycleRecords returns the audit trail of a loan in the order it happened.
func (e *Engine) ListLifecycleRecords(ctx context.Context, loanID uuid.UUID) ([]library.LifecycleRecord, error) {
	records := make([]library.LifecycleRecord, 0)

	ds := e.from(tableLifecycleRecords).
		Select("id", "event_type", "occurred_at", "loan_id", "book_id", "payload", "metadata").
		Where(goqu.C("loan_id").Eq(loanID.String())).
		Order(goqu.C("occurred_at").Asc(), goqu.C("id").Asc())

	err := e.queryRows(ctx, operationListLifecycleRecords, ds, func(rows adapters.DBRows) error {
		var (
			record            library.LifecycleRecord
			recLoanID, bookID uuid.NullUUID
			payload, metadata string
		)

		if scanErr := rows.Scan(&record.ID, &record.EventType, &record.OccurredAt, &recLoanID, &bookID,
			&payload, &metadata); scanErr != nil {
			return scanErr
		}

		record.OccurredAt = record.OccurredAt.UTC()
		record.LoanID = nullID(recLoanID)
		record.BookID = nullID(bookID)
		record.PayloadJSON = []byte(payload)
		record.MetadataJSON = []byte(metadata)
		records = append(records, record)

		return nil
	})

	return records, err
}
