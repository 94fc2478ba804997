package sqlengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	operationGetBook            = "get_book"
	operationLockBook           = "lock_book"
	operationInsertBook         = "insert_book"
	operationSetAvailableCopies = "set_available_copies"
	operationSetCopies          = "set_copies"
	operationSoftDeleteBook     = "soft_delete_book"
	operationListBooks          = "list_books"
)

var bookColumns = []any{
	"id", "title", "author", "publisher", "edition", "publication_year", "total_copies",
	"available_copies", "shelf_life_years", "category", "grade", "stage", "created_at", "deleted_at",
}

func scanBook(rows adapters.DBRows) (library.Book, error) {
	var (
		book      library.Book
		shelfLife sql.NullInt64
		deletedAt sql.NullTime
	)

	err := rows.Scan(
		&book.ID, &book.Title, &book.Author, &book.Publisher, &book.Edition, &book.PublicationYear,
		&book.TotalCopies, &book.AvailableCopies, &shelfLife, &book.Category, &book.Grade, &book.Stage,
		&book.CreatedAt, &deletedAt,
	)
	if err != nil {
		return library.Book{}, err
	}

	if shelfLife.Valid {
		years := int(shelfLife.Int64)
		book.ShelfLifeYears = &years
	}

	book.CreatedAt = book.CreatedAt.UTC()
	book.DeletedAt = nullTime(deletedAt)

	return book, nil
}

// GetBook returns the book including soft-deleted ones, callers decide how to treat those.
func (e *Engine) GetBook(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	return e.selectBook(ctx, operationGetBook, e.from(tableBooks).Select(bookColumns...).
		Where(goqu.C("id").Eq(bookID.String())))
}

// LockBook reads the book and, on Postgres inside a transaction, holds its row lock until commit.
func (e *Engine) LockBook(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	return e.selectBook(ctx, operationLockBook, e.forUpdate(e.from(tableBooks).Select(bookColumns...).
		Where(goqu.C("id").Eq(bookID.String()))))
}

func (e *Engine) selectBook(ctx context.Context, operation string, ds *goqu.SelectDataset) (library.Book, error) {
	var book library.Book

	err := e.queryOne(ctx, operation, ds, func(rows adapters.DBRows) error {
		var scanErr error
		book, scanErr = scanBook(rows)

		return scanErr
	})

	return book, err
}

func (e *Engine) InsertBook(ctx context.Context, book library.Book) error {
	var shelfLife any
	if book.ShelfLifeYears != nil {
		shelfLife = *book.ShelfLifeYears
	}

	_, err := e.exec(ctx, operationInsertBook, e.insertInto(tableBooks).Rows(goqu.Record{
		"id":               book.ID.String(),
		"title":            book.Title,
		"author":           book.Author,
		"publisher":        book.Publisher,
		"edition":          book.Edition,
		"publication_year": book.PublicationYear,
		"total_copies":     book.TotalCopies,
		"available_copies": book.AvailableCopies,
		"shelf_life_years": shelfLife,
		"category":         book.Category,
		"grade":            book.Grade,
		"stage":            book.Stage,
		"created_at":       library.ToTimestamp(book.CreatedAt),
		"deleted_at":       nullableTime(book.DeletedAt),
	}))

	return err
}

// SetAvailableCopies writes the copy counter. The write is guarded by the total, so a
// counter above the total never lands.
func (e *Engine) SetAvailableCopies(ctx context.Context, bookID uuid.UUID, available int) error {
	if available < 0 {
		return library.Validation("available copies must not be negative")
	}

	affected, err := e.exec(ctx, operationSetAvailableCopies, e.update(tableBooks).
		Set(goqu.Record{"available_copies": available}).
		Where(goqu.C("id").Eq(bookID.String()), goqu.C("total_copies").Gte(available)))
	if err != nil {
		return err
	}

	return e.checkBookWrite(ctx, bookID, affected)
}

func (e *Engine) SetCopies(ctx context.Context, bookID uuid.UUID, total int, available int) error {
	if total < 0 || available < 0 || available > total {
		return library.Validation("copies must satisfy 0 <= available <= total")
	}

	affected, err := e.exec(ctx, operationSetCopies, e.update(tableBooks).
		Set(goqu.Record{"total_copies": total, "available_copies": available}).
		Where(goqu.C("id").Eq(bookID.String())))
	if err != nil {
		return err
	}

	return e.checkBookWrite(ctx, bookID, affected)
}

func (e *Engine) SoftDeleteBook(ctx context.Context, bookID uuid.UUID, deletedAt time.Time) error {
	affected, err := e.exec(ctx, operationSoftDeleteBook, e.update(tableBooks).
		Set(goqu.Record{"deleted_at": library.ToTimestamp(deletedAt)}).
		Where(goqu.C("id").Eq(bookID.String()), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return err
	}

	return e.checkBookWrite(ctx, bookID, affected)
}

// checkBookWrite tells a missing book apart from a guarded write that matched no row.
func (e *Engine) checkBookWrite(ctx context.Context, bookID uuid.UUID, affected int64) error {
	if affected > 0 {
		return nil
	}

	if _, err := e.GetBook(ctx, bookID); err != nil {
		return err
	}

	return library.ErrConcurrencyConflict
}

// ListBooks returns the catalog ordered by title.
func (e *Engine) ListBooks(ctx context.Context, includeDeleted bool) ([]library.Book, error) {
	ds := e.from(tableBooks).Select(bookColumns...).Order(goqu.C("title").Asc(), goqu.C("id").Asc())
	if !includeDeleted {
		ds = ds.Where(goqu.C("deleted_at").IsNull())
	}

	books := make([]library.Book, 0)

	err := e.queryRows(ctx, operationListBooks, ds, func(rows adapters.DBRows) error {
		book, scanErr := scanBook(rows)
		if scanErr != nil {
			return scanErr
		}

		books = append(books, book)

		return nil
	})

	return books, err
}
