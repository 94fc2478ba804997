package sqlengine

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
)

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return library.ToTimestamp(*t)
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}

	return id.String()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}

	return *s
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	utc := t.Time.UTC()

	return &utc
}

func nullID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}

	value := id.UUID

	return &value
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	value := s.String

	return &value
}
