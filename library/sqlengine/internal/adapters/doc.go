// Package adapters provide database adapter implementations for the SQL storage engine.
//
// This package implements the adapter pattern to support multiple database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, including transactions, so the engine can run the loan
// lifecycle read-check-write sequences atomically with any supported connection type.
package adapters
