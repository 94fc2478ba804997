package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/schoollibrary/circulation/httpapi"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the overdue notifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if !a.cfg.Storage.SkipMigration {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	handlers, err := a.handlers()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         a.cfg.HTTPServer.Addr,
		Handler:      httpapi.NewServer(handlers, a.store, httpapi.WithLogger(a.observers.ContextualLogger)),
		ReadTimeout:  a.cfg.HTTPServer.ReadTimeout,
		WriteTimeout: a.cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  a.cfg.HTTPServer.IdleTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.logger.Info("server started", slog.String("address", server.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down the server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if !a.cfg.Notifier.Disabled {
		notifier, err := a.notifier()
		if err != nil {
			return err
		}

		group.Go(func() error {
			if err := notifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		})
	}

	if err = group.Wait(); err != nil {
		return err
	}

	a.logger.Info("server stopped gracefully")

	return nil
}
