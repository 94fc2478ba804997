package config

import (
	"context"
	"fmt"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/memengine"
	"github.com/schoollibrary/circulation/library/sqlengine"
)

// Observers are the observability backends handed to the storage engine. All are optional.
type Observers struct {
	Logger           library.Logger
	ContextualLogger library.ContextualLogger
	Metrics          library.MetricsCollector
	Tracing          library.TracingCollector
}

// Migrator is implemented by engines that own a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// OpenStore builds the storage engine selected by s. The returned close function releases
// the database connections and is never nil.
func OpenStore(ctx context.Context, s Storage, observers Observers) (library.Store, func(), error) {
	noop := func() {}

	if s.Driver == DriverMemory {
		options := []memengine.Option{memengine.WithTxTimeout(s.TxTimeout)}
		if observers.Logger != nil {
			options = append(options, memengine.WithLogger(observers.Logger))
		}

		engine, err := memengine.NewEngine(options...)
		if err != nil {
			return nil, noop, err
		}

		return engine, noop, nil
	}

	options := sqlOptions(s, observers)

	switch s.Driver {
	case DriverSQLite:
		db, err := NewSQLiteDB(ctx, s.SQLitePath)
		if err != nil {
			return nil, noop, err
		}

		engine, err := sqlengine.NewEngineFromSQLDB(db, append(options, sqlengine.WithDialect(sqlengine.DialectSQLite))...)

		return engineOrClose(engine, err, func() { _ = db.Close() })

	case DriverPostgres:
		return openPostgres(ctx, s, options)
	}

	return nil, noop, fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, s.Driver)
}

func openPostgres(ctx context.Context, s Storage, options []sqlengine.Option) (library.Store, func(), error) {
	noop := func() {}

	switch s.PostgresAdapter {
	case AdapterSQLDB:
		db, err := NewPostgresSQLDB(ctx, s.DSN)
		if err != nil {
			return nil, noop, err
		}

		engine, err := sqlengine.NewEngineFromSQLDB(db, options...)

		return engineOrClose(engine, err, func() { _ = db.Close() })

	case AdapterSQLXDB:
		db, err := NewPostgresSQLX(ctx, s.DSN)
		if err != nil {
			return nil, noop, err
		}

		engine, err := sqlengine.NewEngineFromSQLX(db, options...)

		return engineOrClose(engine, err, func() { _ = db.Close() })
	}

	primary, err := NewPGXPool(ctx, s.DSN)
	if err != nil {
		return nil, noop, err
	}

	if s.ReplicaDSN == "" {
		engine, engineErr := sqlengine.NewEngineFromPGXPool(primary, options...)

		return engineOrClose(engine, engineErr, primary.Close)
	}

	replica, err := NewPGXPool(ctx, s.ReplicaDSN)
	if err != nil {
		primary.Close()
		return nil, noop, err
	}

	engine, err := sqlengine.NewEngineFromPGXPoolAndReplica(primary, replica, options...)

	return engineOrClose(engine, err, func() {
		replica.Close()
		primary.Close()
	})
}

func sqlOptions(s Storage, observers Observers) []sqlengine.Option {
	options := []sqlengine.Option{
		sqlengine.WithCallTimeout(s.CallTimeout),
		sqlengine.WithTxTimeout(s.TxTimeout),
	}

	if observers.Logger != nil {
		options = append(options, sqlengine.WithLogger(observers.Logger))
	}

	if observers.ContextualLogger != nil {
		options = append(options, sqlengine.WithContextualLogger(observers.ContextualLogger))
	}

	if observers.Metrics != nil {
		options = append(options, sqlengine.WithMetrics(observers.Metrics))
	}

	if observers.Tracing != nil {
		options = append(options, sqlengine.WithTracing(observers.Tracing))
	}

	return options
}

func engineOrClose(engine *sqlengine.Engine, err error, closeFn func()) (library.Store, func(), error) {
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}

	return engine, closeFn, nil
}

// Migrate creates the schema if store owns one. The in-memory engine has nothing to migrate.
func Migrate(ctx context.Context, store library.Store) error {
	migrator, ok := store.(Migrator)
	if !ok {
		return nil
	}

	return migrator.Migrate(ctx)
}
