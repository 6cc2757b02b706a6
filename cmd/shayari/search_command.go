package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rizwanabrish101/shayari/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		docType string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over verses and poets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := search.DefaultSearchParams()
			params.Query = strings.Join(args, " ")
			params.Limit = limit
			params.Highlight = false
			switch docType {
			case "":
			case string(search.DocTypeVerse), string(search.DocTypePoet):
				params.Types = []search.DocType{search.DocType(docType)}
			default:
				return fmt.Errorf("unknown --type %q (verse or poet)", docType)
			}

			return ctx.withApp(cmd.Context(), func(a *app) error {
				res, err := a.catalog.Search(cmd.Context(), params)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(res.Hits) == 0 {
					fmt.Fprintf(out, "No results for %q\n", params.Query)
					return nil
				}
				rows := make([][]string, 0, len(res.Hits))
				for _, h := range res.Hits {
					id := h.ID
					if h.Type == search.DocTypePoet {
						id = h.PoetID
					}
					rows = append(rows, []string{
						string(h.Type),
						id,
						h.Name,
						strings.Join(strings.Fields(h.Text), " "),
						strconv.FormatFloat(h.Score, 'f', 2, 64),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Type", "ID", "Name", "Text", "Score"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight}, shouldColorize(out)))
				fmt.Fprintf(out, "%d of %d results\n", len(res.Hits), res.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&docType, "type", "", "Restrict to verse or poet")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results")

	return cmd
}
