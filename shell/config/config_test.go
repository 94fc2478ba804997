package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/library/memengine"
	"github.com/schoollibrary/circulation/library/sqlengine"
	"github.com/schoollibrary/circulation/shell/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func Test_Load_ReadsTheYAMLFile(t *testing.T) {
	// arrange
	path := writeConfig(t, `
env: prod
http_server:
  address: ":9090"
storage:
  driver: postgres
  postgres_adapter: sqlx.db
  dsn: postgres://library@localhost/library
  call_timeout: 2s
retry:
  max_attempts: 4
notifier:
  interval: 30m
`)

	// act
	cfg, err := config.Load(path)

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.EnvProd, cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTPServer.Addr)
	assert.Equal(t, config.AdapterSQLXDB, cfg.Storage.PostgresAdapter)
	assert.Equal(t, 2*time.Second, cfg.Storage.CallTimeout)
	assert.Equal(t, 10*time.Second, cfg.Storage.TxTimeout, "defaults apply to keys left out")
	assert.Equal(t, 4, cfg.Retry.Settings().MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Notifier.Interval)
	assert.Equal(t, 72*time.Hour, cfg.Notifier.DueSoonWithin)
}

func Test_Load_EnvironmentOverridesTheFile(t *testing.T) {
	// arrange
	path := writeConfig(t, "env: dev\nstorage:\n  driver: sqlite\n")
	t.Setenv("STORAGE_DRIVER", "memory")

	// act
	cfg, err := config.Load(path)

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
}

func Test_Load_RejectsInconsistentValues(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "unknown env", content: "env: test\n"},
		{name: "unknown driver", content: "storage:\n  driver: mongo\n"},
		{name: "postgres without dsn", content: "storage:\n  driver: postgres\n"},
		{
			name:    "replica without pgx pool",
			content: "storage:\n  driver: postgres\n  postgres_adapter: sql.db\n  dsn: postgres://a\n  replica_dsn: postgres://b\n",
		},
		{name: "unknown adapter", content: "storage:\n  driver: postgres\n  postgres_adapter: gorm\n  dsn: postgres://a\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := config.Load(writeConfig(t, tc.content))

			// assert
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func Test_Load_FailsOnMissingFile(t *testing.T) {
	// act
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

	// assert
	assert.Error(t, err)
}

func Test_NewLogger_UsesTextInDevAndJSONElsewhere(t *testing.T) {
	// setup
	var dev, prod bytes.Buffer

	// act
	config.NewLogger(config.EnvDev, &dev).Debug("hello", "k", "v")
	config.NewLogger(config.EnvProd, &prod).Info("hello", "k", "v")

	// assert
	assert.Contains(t, dev.String(), "level=DEBUG")
	assert.Contains(t, prod.String(), `"msg":"hello"`)
}

func Test_OpenStore_Memory(t *testing.T) {
	// act
	store, closeStore, err := config.OpenStore(context.Background(), config.Storage{Driver: config.DriverMemory, TxTimeout: time.Second}, config.Observers{})

	// assert
	require.NoError(t, err)
	t.Cleanup(closeStore)
	assert.IsType(t, &memengine.Engine{}, store)
	assert.NoError(t, config.Migrate(context.Background(), store))
}

func Test_OpenStore_SQLite_CreatesAMigratableDatabase(t *testing.T) {
	// setup
	ctx := context.Background()
	storage := config.Storage{
		Driver:      config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "data", "library.db"),
		CallTimeout: time.Second,
		TxTimeout:   time.Second,
	}

	// act
	store, closeStore, err := config.OpenStore(ctx, storage, config.Observers{})

	// assert
	require.NoError(t, err)
	t.Cleanup(closeStore)
	assert.IsType(t, &sqlengine.Engine{}, store)
	require.NoError(t, config.Migrate(ctx, store))

	books, err := store.ListBooks(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, books)
}
