package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavoritesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite verses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorites in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				verses, err := a.favorites.ListFavorites(cmd.Context())
				if err != nil {
					return err
				}
				writeVerses(cmd.OutOrStdout(), verses, "No favorites yet")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <verse-id>",
		Short: "Mark a verse as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				v, err := a.catalog.GetVerse(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("verse %s: %w", args[0], err)
				}
				if _, err := a.favorites.Add(cmd.Context(), v.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added verse %s to favorites\n", v.ID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <verse-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a verse from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				if err := a.favorites.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed verse %s from favorites\n", args[0])
				return nil
			})
		},
	})

	return cmd
}
