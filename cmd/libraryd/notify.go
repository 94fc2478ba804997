package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schoollibrary/circulation/workers"
)

func newNotifyOverdueCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-overdue",
		Short: "Run one pass of the overdue notifier and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			notifier, err := a.notifier()
			if err != nil {
				return err
			}

			report, err := notifier.Check(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "overdue: %d, due soon: %d, already notified today: %d\n",
				report.Overdue, report.DueSoon, report.Skipped)

			return err
		},
	}
}

func (a *app) notifier() (*workers.Notifier, error) {
	handlers, err := a.handlers()
	if err != nil {
		return nil, err
	}

	return workers.NewNotifier(
		handlers.OverdueLoans,
		a.store,
		workers.WithInterval(a.cfg.Notifier.Interval),
		workers.WithDueSoonWithin(a.cfg.Notifier.DueSoonWithin),
		workers.WithLogger(a.observers.Logger),
		workers.WithContextualLogger(a.observers.ContextualLogger),
		workers.WithMetrics(a.observers.Metrics),
	), nil
}
