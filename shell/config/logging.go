package config

import (
	"io"
	"log/slog"
)

// NewLogger creates the process logger: text in dev, JSON elsewhere. Only prod drops debug records.
func NewLogger(env string, w io.Writer) *slog.Logger {
	if env == EnvDev {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	level := slog.LevelDebug
	if env == EnvProd {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
