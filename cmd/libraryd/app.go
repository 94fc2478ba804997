package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/schoollibrary/circulation/httpapi"
	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/oteladapters"
	"github.com/schoollibrary/circulation/shell"
	"github.com/schoollibrary/circulation/shell/config"
)

const instrumentationName = "github.com/schoollibrary/circulation"

// app is the wiring shared by all subcommands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	observers  httpapi.Observers
	store      library.Store
	closeStore func()
	providers  *config.ObservabilityProviders
}

func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := config.NewLogger(cfg.Env, os.Stdout)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, closeStore: func() {}}

	a.observers = httpapi.Observers{
		Logger:           logger,
		ContextualLogger: oteladapters.NewSlogBridgeLoggerWithHandler(logger.Handler()),
	}

	if cfg.Observability.Enabled() {
		if a.providers, err = config.NewObservabilityProviders(ctx, cfg.Observability); err != nil {
			return nil, err
		}

		if a.providers.MeterProvider != nil {
			a.observers.Metrics = oteladapters.NewMetricsCollector(a.providers.MeterProvider.Meter(instrumentationName))
		}

		if a.providers.TracerProvider != nil {
			a.observers.Tracing = oteladapters.NewTracingCollector(a.providers.TracerProvider.Tracer(instrumentationName))
		}
	}

	a.store, a.closeStore, err = config.OpenStore(ctx, cfg.Storage, config.Observers{
		Logger:           a.observers.Logger,
		ContextualLogger: a.observers.ContextualLogger,
		Metrics:          a.observers.Metrics,
		Tracing:          a.observers.Tracing,
	})
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	logger.Info("storage opened",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("env", cfg.Env),
	)

	return a, nil
}

func (a *app) migrate(ctx context.Context) error {
	if err := config.Migrate(ctx, a.store); err != nil {
		return err
	}

	a.logger.Info("schema is up to date", slog.String("driver", a.cfg.Storage.Driver))

	return nil
}

func (a *app) handlers() (httpapi.Handlers, error) {
	return httpapi.BuildHandlers(a.store, a.observers, a.cfg.Retry.Settings())
}

func (a *app) close(ctx context.Context) {
	a.closeStore()

	if a.providers == nil {
		return
	}

	if err := a.providers.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("failed to flush telemetry", slog.String("error", err.Error()))
	}
}

var _ shell.ContextualLogger = (*oteladapters.SlogBridgeLogger)(nil)
