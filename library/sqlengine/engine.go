package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	// DialectPostgres selects Postgres SQL, used with pgx.Pool, sql.DB (lib/pq) and sqlx.DB.
	DialectPostgres = "postgres"

	// DialectSQLite selects SQLite SQL, used with sql.DB (go-sqlite3).
	DialectSQLite = "sqlite3"

	defaultCallTimeout = 3 * time.Second
	defaultTxTimeout   = 10 * time.Second
)

const (
	tableBooks            = "books"
	tableLoans            = "loans"
	tableStudents         = "students"
	tableTeachers         = "teachers"
	tableClassGroups      = "class_groups"
	tableLifecycleRecords = "lifecycle_records"
	tableNotifications    = "notifications"
)

// Engine is the relational storage engine of the circulation service.
// It implements library.UnitOfWork and, inside WithinTx, library.Tx.
//
// Every statement runs with a bounded per-call timeout. A timeout or a lost connection
// surfaces as library.ErrUnavailable, so command handlers can retry it.
type Engine struct {
	db               adapters.DBAdapter
	q                adapters.Querier
	inTx             bool
	dialect          string
	callTimeout      time.Duration
	txTimeout        time.Duration
	logger           library.Logger
	contextualLogger library.ContextualLogger
	metricsCollector library.MetricsCollector
	tracingCollector library.TracingCollector
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithDialect sets the SQL dialect. Only needed for sql.DB connections to SQLite.
func WithDialect(dialect string) Option {
	return func(e *Engine) error {
		if dialect != DialectPostgres && dialect != DialectSQLite {
			return library.ErrUnsupportedDialect
		}

		e.dialect = dialect

		return nil
	}
}

// WithCallTimeout bounds every single statement.
func WithCallTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return library.Validation("call timeout must be positive")
		}

		e.callTimeout = timeout

		return nil
	}
}

// WithTxTimeout bounds a whole unit of work, from begin to commit.
func WithTxTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return library.Validation("transaction timeout must be positive")
		}

		e.txTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Engine.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: transaction outcomes
// Warn level: non-critical issues like rollback or cleanup failures
// Error level: failures that make an operation fail.
func WithLogger(logger library.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger library.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
func WithMetrics(collector library.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine.
func WithTracing(collector library.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// NewEngineFromPGXPool creates a new Postgres Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromPGXPoolAndReplica creates a new Postgres Engine which serves eventually
// consistent reads from the replica pool.
func NewEngineFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil || replica == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB.
// The dialect defaults to Postgres, use WithDialect(DialectSQLite) for go-sqlite3 connections.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Postgres Engine using a sqlx.DB.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (*Engine, error) {
	e := &Engine{
		db:          db,
		q:           db,
		dialect:     DialectPostgres,
		callTimeout: defaultCallTimeout,
		txTimeout:   defaultTxTimeout,
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Dialect returns the SQL dialect of the engine.
func (e *Engine) Dialect() string {
	return e.dialect
}

// WithinTx runs fn in a transaction. Nested calls join the running transaction.
func (e *Engine) WithinTx(ctx context.Context, fn func(ctx context.Context, tx library.Tx) error) error {
	if e.inTx {
		return fn(ctx, e)
	}

	txCtx, cancel := context.WithTimeout(ctx, e.txTimeout)
	defer cancel()

	ctx, observer := e.startOperation(txCtx, operationTransaction)

	tx, beginErr := e.db.BeginTx(ctx)
	if beginErr != nil {
		mapped := mapDBError(beginErr)
		e.logError(ctx, logMsgBeginTxFailed, mapped)
		observer.finish(mapped)

		return errors.Join(library.ErrTransactionFailed, mapped)
	}

	txEngine := *e
	txEngine.q = tx
	txEngine.inTx = true

	if fnErr := fn(ctx, &txEngine); fnErr != nil {
		e.rollback(ctx, tx)
		observer.finish(fnErr)

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		mapped := mapDBError(commitErr)
		e.logError(ctx, logMsgCommitFailed, mapped)
		e.rollback(ctx, tx)
		observer.finish(mapped)

		return errors.Join(library.ErrTransactionFailed, mapped)
	}

	observer.finish(nil)

	return nil
}

// rollback aborts tx with its own deadline, the transaction context may already be done.
func (e *Engine) rollback(ctx context.Context, tx adapters.TxAdapter) {
	rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.callTimeout)
	defer cancel()

	if err := tx.Rollback(rollbackCtx); err != nil && !errors.Is(err, sql.ErrTxDone) {
		e.logWarn(ctx, logMsgRollbackFailed, logAttrError, err.Error())
	}
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.callTimeout)
}

func (e *Engine) from(table any) *goqu.SelectDataset {
	return goqu.Dialect(e.dialect).From(table).Prepared(true)
}

func (e *Engine) insertInto(table string) *goqu.InsertDataset {
	return goqu.Dialect(e.dialect).Insert(table).Prepared(true)
}

func (e *Engine) update(table string) *goqu.UpdateDataset {
	return goqu.Dialect(e.dialect).Update(table).Prepared(true)
}

// forUpdate adds a row lock where the dialect supports one.
// SQLite has no row locks, its write transactions are serialized by the database lock.
func (e *Engine) forUpdate(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if e.dialect == DialectPostgres && e.inTx {
		return ds.ForUpdate(exp.Wait)
	}

	return ds
}

type statement interface {
	ToSQL() (string, []any, error)
}

// queryRows runs a select and hands every row to scan.
func (e *Engine) queryRows(
	ctx context.Context,
	operation string,
	ds *goqu.SelectDataset,
	scan func(rows adapters.DBRows) error,
) error {

	sqlQuery, args, buildErr := ds.ToSQL()
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr, logAttrOperation, operation)
		return errors.Join(library.ErrBuildingQueryFailed, buildErr)
	}

	ctx, observer := e.startOperation(ctx, operation)

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	start := time.Now()
	rows, queryErr := e.q.Query(callCtx, sqlQuery, args...)
	if queryErr != nil {
		mapped := mapDBError(queryErr)
		e.logError(ctx, logMsgDBQueryFailed, mapped, logAttrOperation, operation, logAttrQuery, sqlQuery)
		observer.finish(mapped)

		return errors.Join(library.ErrQueryingFailed, mapped)
	}
	defer e.closeRows(ctx, rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, scanErr, logAttrOperation, operation)
			observer.finish(scanErr)

			return errors.Join(library.ErrScanningDBRowFailed, scanErr)
		}
	}

	if iterErr := rows.Err(); iterErr != nil {
		mapped := mapDBError(iterErr)
		e.logError(ctx, logMsgDBQueryFailed, mapped, logAttrOperation, operation, logAttrQuery, sqlQuery)
		observer.finish(mapped)

		return errors.Join(library.ErrQueryingFailed, mapped)
	}

	e.logQueryWithDuration(ctx, sqlQuery, operation, time.Since(start))
	observer.finish(nil)

	return nil
}

// queryOne runs a select expected to return at most one row.
// It returns library.ErrNotFound if there is none.
func (e *Engine) queryOne(
	ctx context.Context,
	operation string,
	ds *goqu.SelectDataset,
	scan func(rows adapters.DBRows) error,
) error {

	found := false

	err := e.queryRows(ctx, operation, ds.Limit(1), func(rows adapters.DBRows) error {
		found = true
		return scan(rows)
	})
	if err != nil {
		return err
	}

	if !found {
		return library.ErrNotFound
	}

	return nil
}

// queryCount runs a select returning a single integer.
func (e *Engine) queryCount(ctx context.Context, operation string, ds *goqu.SelectDataset) (int, error) {
	var count int

	err := e.queryRows(ctx, operation, ds, func(rows adapters.DBRows) error {
		return rows.Scan(&count)
	})

	return count, err
}

// exec runs a write statement and returns the number of affected rows.
func (e *Engine) exec(ctx context.Context, operation string, stmt statement) (int64, error) {
	sqlQuery, args, buildErr := stmt.ToSQL()
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr, logAttrOperation, operation)
		return 0, errors.Join(library.ErrBuildingQueryFailed, buildErr)
	}

	return e.execSQL(ctx, operation, sqlQuery, args...)
}

func (e *Engine) execSQL(ctx context.Context, operation string, sqlQuery string, args ...any) (int64, error) {
	ctx, observer := e.startOperation(ctx, operation)

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	start := time.Now()
	result, execErr := e.q.Exec(callCtx, sqlQuery, args...)
	if execErr != nil {
		mapped := mapDBError(execErr)
		e.logError(ctx, logMsgDBExecFailed, mapped, logAttrOperation, operation, logAttrQuery, sqlQuery)
		observer.finish(mapped)

		return 0, errors.Join(library.ErrWritingFailed, mapped)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		e.logError(ctx, logMsgRowsAffectedFailed, rowsErr, logAttrOperation, operation)
		observer.finish(rowsErr)

		return 0, errors.Join(library.ErrWritingFailed, rowsErr)
	}

	e.logQueryWithDuration(ctx, sqlQuery, operation, time.Since(start))
	observer.finish(nil)

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

var _ library.Store = (*Engine)(nil)
var _ library.Tx = (*Engine)(nil)
