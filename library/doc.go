// Package library provides the core types of the school library circulation service.
//
// It defines the data model (books, borrowers, loans), the loan policy constants,
// the error taxonomy shared by all engines and handlers, the LoanFilter used to query
// the loan ledger, and the dependency-free observability interfaces.
//
// Storage engines live in sub-packages:
//   - sqlengine: Postgres (pgx.Pool, sql.DB, sqlx.DB) or SQLite through goqu
//   - memengine: in-memory engine with per-book locking
//
// Both engines implement UnitOfWork, so the loan lifecycle handlers can run every
// read-check-write sequence inside a single transaction:
//
//	err := store.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
//		book, err := tx.LockBook(ctx, bookID)
//		if err != nil {
//			return err
//		}
//		active, err := tx.CountActiveLoans(ctx, bookID)
//		...
//		return tx.SetAvailableCopies(ctx, bookID, book.TotalCopies-active-1)
//	})
package library
