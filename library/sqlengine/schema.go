package sqlengine

import (
	"context"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS class_groups (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id                  UUID PRIMARY KEY,
		name                TEXT NOT NULL,
		registration_number TEXT NOT NULL UNIQUE,
		class_group_id      UUID REFERENCES class_groups (id),
		created_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id               UUID PRIMARY KEY,
		title            TEXT NOT NULL,
		author           TEXT NOT NULL,
		publisher        TEXT NOT NULL DEFAULT '',
		edition          TEXT NOT NULL DEFAULT '',
		publication_year INTEGER NOT NULL DEFAULT 0,
		total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
		available_copies INTEGER NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
		shelf_life_years INTEGER,
		category         TEXT NOT NULL DEFAULT '',
		grade            TEXT NOT NULL DEFAULT '',
		stage            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		deleted_at       TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id            UUID PRIMARY KEY,
		book_id       UUID NOT NULL REFERENCES books (id),
		student_id    UUID REFERENCES students (id),
		teacher_id    UUID REFERENCES teachers (id),
		loan_date     TIMESTAMPTZ NOT NULL,
		due_date      TIMESTAMPTZ NOT NULL,
		return_date   TIMESTAMPTZ,
		status        TEXT NOT NULL CHECK (status IN ('active', 'returned')),
		renewal_count INTEGER NOT NULL DEFAULT 0 CHECK (renewal_count >= 0),
		book_title    TEXT,
		book_author   TEXT,
		borrower_name TEXT,
		created_at    TIMESTAMPTZ NOT NULL,
		CHECK ((student_id IS NULL) <> (teacher_id IS NULL)),
		CHECK ((status = 'active' AND return_date IS NULL) OR (status = 'returned' AND return_date IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS loans_book_status_idx ON loans (book_id, status)`,
	`CREATE INDEX IF NOT EXISTS loans_status_due_idx ON loans (status, due_date)`,
	`CREATE INDEX IF NOT EXISTS loans_student_idx ON loans (student_id)`,
	`CREATE INDEX IF NOT EXISTS loans_teacher_idx ON loans (teacher_id)`,
	`CREATE TABLE IF NOT EXISTS lifecycle_records (
		id          UUID PRIMARY KEY,
		event_type  TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		loan_id     UUID,
		book_id     UUID,
		payload     JSONB NOT NULL,
		metadata    JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lifecycle_records_loan_idx ON lifecycle_records (loan_id, occurred_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         UUID PRIMARY KEY,
		loan_id    UUID NOT NULL REFERENCES loans (id),
		student_id UUID,
		teacher_id UUID,
		kind       TEXT NOT NULL,
		message    TEXT NOT NULL,
		is_read    BOOLEAN NOT NULL DEFAULT false,
		day        TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (loan_id, kind, day)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS class_groups (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		registration_number TEXT NOT NULL UNIQUE,
		class_group_id      TEXT REFERENCES class_groups (id),
		created_at          TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		author           TEXT NOT NULL,
		publisher        TEXT NOT NULL DEFAULT '',
		edition          TEXT NOT NULL DEFAULT '',
		publication_year INTEGER NOT NULL DEFAULT 0,
		total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
		available_copies INTEGER NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
		shelf_life_years INTEGER,
		category         TEXT NOT NULL DEFAULT '',
		grade            TEXT NOT NULL DEFAULT '',
		stage            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMP NOT NULL,
		deleted_at       TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id            TEXT PRIMARY KEY,
		book_id       TEXT NOT NULL REFERENCES books (id),
		student_id    TEXT REFERENCES students (id),
		teacher_id    TEXT REFERENCES teachers (id),
		loan_date     TIMESTAMP NOT NULL,
		due_date      TIMESTAMP NOT NULL,
		return_date   TIMESTAMP,
		status        TEXT NOT NULL CHECK (status IN ('active', 'returned')),
		renewal_count INTEGER NOT NULL DEFAULT 0 CHECK (renewal_count >= 0),
		book_title    TEXT,
		book_author   TEXT,
		borrower_name TEXT,
		created_at    TIMESTAMP NOT NULL,
		CHECK ((student_id IS NULL) <> (teacher_id IS NULL)),
		CHECK ((status = 'active' AND return_date IS NULL) OR (status = 'returned' AND return_date IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS loans_book_status_idx ON loans (book_id, status)`,
	`CREATE INDEX IF NOT EXISTS loans_status_due_idx ON loans (status, due_date)`,
	`CREATE INDEX IF NOT EXISTS loans_student_idx ON loans (student_id)`,
	`CREATE INDEX IF NOT EXISTS loans_teacher_idx ON loans (teacher_id)`,
	`CREATE TABLE IF NOT EXISTS lifecycle_records (
		id          TEXT PRIMARY KEY,
		event_type  TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		loan_id     TEXT,
		book_id     TEXT,
		payload     TEXT NOT NULL,
		metadata    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lifecycle_records_loan_idx ON lifecycle_records (loan_id, occurred_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		loan_id    TEXT NOT NULL REFERENCES loans (id),
		student_id TEXT,
		teacher_id TEXT,
		kind       TEXT NOT NULL,
		message    TEXT NOT NULL,
		is_read    BOOLEAN NOT NULL DEFAULT 0,
		day        TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (loan_id, kind, day)
	)`,
}

// Migrate creates the tables and indexes of the circulation service if they do not exist yet.
func (e *Engine) Migrate(ctx context.Context) error {
	statements := postgresSchema
	if e.dialect == DialectSQLite {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := e.execSQL(ctx, operationMigrate, stmt); err != nil {
			return err
		}
	}

	e.logInfo(ctx, logMsgMigrated, logAttrDialect, e.dialect)

	return nil
}
