package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "libraryd",
		Short:        "Loan lifecycle service of the school library",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config file, defaults to $CONFIG_PATH")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newNotifyOverdueCommand(&configPath),
	)

	return root
}
