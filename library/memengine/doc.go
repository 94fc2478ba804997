// Package memengine provides an in-memory storage engine for the circulation service.
//
// It implements library.Store with the same observable semantics as the SQL engine:
// LockBook and LockLoan hold exclusive per-record locks until the unit of work ends, writes
// made inside WithinTx are undone when fn fails, and the structural constraints of the
// relational schema (foreign keys, unique registration numbers, copy bounds, one notification
// per loan, kind and day) are enforced.
//
// Writes become visible to other readers before commit. Lifecycle decisions are serialized by
// the book and loan locks, so this only matters for listings and reports.
//
// The engine is meant for tests and the demo mode. Data lives as long as the process.
package memengine
