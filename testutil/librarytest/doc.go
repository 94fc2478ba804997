// Package librarytest provides fixtures and Given* helpers for tests of the circulation service.
//
// The helpers work against library.UnitOfWork, so the same arrangement code serves the SQL
// engine and the in-memory engine.
package librarytest
