package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var dataFlag string
	var envFileFlag string
	var verbose bool

	ctx := newCommandContext(&dataFlag, &envFileFlag, &verbose)

	rootCmd := &cobra.Command{
		Use:           "shayari",
		Short:         "Browse Urdu poetry, keep favorites and compose verse images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&dataFlag, "data", "d", "", "Data directory (default: $SHAYARI_DATA_PATH or ~/Shayari/data)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newPresetsCommand())
	rootCmd.AddCommand(newComposeCommand(ctx))
	rootCmd.AddCommand(newFavoritesCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))

	return rootCmd
}
