package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rizwanabrish101/shayari/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and replace the verse catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <dataset.yaml>",
		Short: "Replace the catalog with a YAML dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				res, err := a.catalog.ImportFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d poets, %d categories, %d verses (revision %d)\n",
					res.Poets, res.Categories, res.Verses, res.Revision)
				return nil
			})
		},
	})

	cmd.AddCommand(newCatalogPoetsCommand(ctx))
	cmd.AddCommand(newCatalogVersesCommand(ctx))

	return cmd
}

func newCatalogPoetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "poets",
		Short: "List poets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				poets, err := a.catalog.ListPoets(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(poets))
				for _, p := range poets {
					rows = append(rows, []string{p.ID, p.Name, p.UrduName, p.Title})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Urdu", "Title"}, rows, nil, shouldColorize(out)))
				return nil
			})
		},
	}
}

func newCatalogVersesCommand(ctx *commandContext) *cobra.Command {
	var filter catalog.VerseFilter

	cmd := &cobra.Command{
		Use:   "verses",
		Short: "List verses, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				verses, err := a.catalog.ListVerses(cmd.Context(), filter)
				if err != nil {
					return err
				}
				writeVerses(cmd.OutOrStdout(), verses, "No verses match")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.PoetID, "poet", "", "Poet id")
	cmd.Flags().StringVar(&filter.CategoryID, "category", "", "Category id")
	cmd.Flags().StringVar(&filter.SearchText, "search", "", "Case-insensitive text match on verse, poet and transliteration")

	return cmd
}
