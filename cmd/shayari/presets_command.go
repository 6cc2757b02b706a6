package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rizwanabrish101/shayari/internal/color"
	"github.com/rizwanabrish101/shayari/internal/compositor"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List background presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets := compositor.Presets()
			rows := make([][]string, 0, len(presets))
			for _, p := range presets {
				stops := make([]string, len(p.Stops))
				for i, c := range p.Stops {
					stops[i] = color.Hex(c)
				}
				rows = append(rows, []string{p.Name, p.Label, string(p.Kind), strings.Join(stops, " ")})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Name", "Label", "Kind", "Colors"}, rows, nil, shouldColorize(out)))
			return nil
		},
	}
}
