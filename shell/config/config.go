package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/schoollibrary/circulation/shell"
)

// Environments select the log format.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Postgres adapters.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLXDB  = "sqlx.db"
)

// ConfigPathEnv names the environment variable holding the path of the YAML file.
const ConfigPathEnv = "CONFIG_PATH"

// ErrInvalidConfig is returned when the loaded values are inconsistent.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration. Every field can be set in the YAML file and overridden
// by its environment variable.
type Config struct {
	Env           string        `yaml:"env" env:"ENV" env-default:"dev"`
	HTTPServer    HTTPServer    `yaml:"http_server"`
	Storage       Storage       `yaml:"storage"`
	Retry         Retry         `yaml:"retry"`
	Notifier      Notifier      `yaml:"notifier"`
	Observability Observability `yaml:"observability"`
}

// HTTPServer holds the listener settings.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Storage selects and configures the storage engine.
// Boolean fields carry no env-default, a default would overwrite a false read from the file.
// ReplicaDSN is only used with the pgx.pool adapter.
type Storage struct {
	Driver          string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	PostgresAdapter string        `yaml:"postgres_adapter" env:"STORAGE_POSTGRES_ADAPTER" env-default:"pgx.pool"`
	DSN             string        `yaml:"dsn" env:"STORAGE_DSN"`
	ReplicaDSN      string        `yaml:"replica_dsn" env:"STORAGE_REPLICA_DSN"`
	SQLitePath      string        `yaml:"sqlite_path" env:"STORAGE_SQLITE_PATH" env-default:"storage/library.db"`
	CallTimeout     time.Duration `yaml:"call_timeout" env:"STORAGE_CALL_TIMEOUT" env-default:"3s"`
	TxTimeout       time.Duration `yaml:"tx_timeout" env:"STORAGE_TX_TIMEOUT" env-default:"10s"`
	SkipMigration   bool          `yaml:"skip_migration" env:"STORAGE_SKIP_MIGRATION"`
}

// Retry configures the retry loop of the command handlers. Zero values keep the built-in defaults.
type Retry struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS"`
	BaseDelay    time.Duration `yaml:"base_delay" env:"RETRY_BASE_DELAY"`
	JitterFactor float64       `yaml:"jitter_factor" env:"RETRY_JITTER_FACTOR"`
}

// Settings converts the values into shell.RetrySettings.
func (r Retry) Settings() shell.RetrySettings {
	return shell.RetrySettings{
		MaxAttempts:  r.MaxAttempts,
		BaseDelay:    r.BaseDelay,
		JitterFactor: r.JitterFactor,
	}
}

// Notifier configures the overdue notifier.
type Notifier struct {
	Disabled      bool          `yaml:"disabled" env:"NOTIFIER_DISABLED"`
	Interval      time.Duration `yaml:"interval" env:"NOTIFIER_INTERVAL" env-default:"1h"`
	DueSoonWithin time.Duration `yaml:"due_soon_within" env:"NOTIFIER_DUE_SOON_WITHIN" env-default:"72h"`
}

// Observability configures the OpenTelemetry exporters. Empty endpoints disable the exporter.
// Exporters connect without TLS unless TLS is set.
type Observability struct {
	ServiceName     string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"circulation"`
	ServiceVersion  string `yaml:"service_version" env:"OTEL_SERVICE_VERSION" env-default:"dev"`
	TracesEndpoint  string `yaml:"traces_endpoint" env:"OTEL_TRACES_ENDPOINT"`
	MetricsEndpoint string `yaml:"metrics_endpoint" env:"OTEL_METRICS_ENDPOINT"`
	TLS             bool   `yaml:"tls" env:"OTEL_EXPORTER_TLS"`
}

// Enabled reports whether any exporter is configured.
func (o Observability) Enabled() bool {
	return o.TracesEndpoint != "" || o.MetricsEndpoint != ""
}

// Load reads the YAML file at path plus environment overrides.
// An empty path falls back to CONFIG_PATH, and without a file only the environment is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}

	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}

		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values cleanenv cannot check with tags.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDev, EnvStaging, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env must be dev, staging or prod, got %q", c.Env))
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}

		switch c.Storage.PostgresAdapter {
		case AdapterPGXPool:
		case AdapterSQLDB, AdapterSQLXDB:
			if c.Storage.ReplicaDSN != "" {
				errs = append(errs, errors.New("storage.replica_dsn needs the pgx.pool adapter"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown storage.postgres_adapter %q", c.Storage.PostgresAdapter))
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	if c.Storage.CallTimeout <= 0 || c.Storage.TxTimeout <= 0 {
		errs = append(errs, errors.New("storage timeouts must be positive"))
	}

	if !c.Notifier.Disabled && c.Notifier.Interval <= 0 {
		errs = append(errs, errors.New("notifier.interval must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return nil
}
