// Package config loads the service configuration and builds what it describes:
// the structured logger, the storage engine with its database connections and the
// OpenTelemetry providers.
//
// This package is part of the shell (infrastructure) layer.
package config
