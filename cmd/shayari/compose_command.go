package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rizwanabrish101/shayari/internal/media/images"
	"github.com/rizwanabrish101/shayari/internal/share"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var (
		text    string
		verseID string
		poet    string
		preset  string
		image   string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Render a verse onto a background and write a PNG",
		Example: `  shayari compose --verse 1 --preset night --out verse.png
  shayari compose --text "پہلا مصرع\nدوسرا مصرع" --poet "غالب" --image photo.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text == "" && verseID == "" {
				return errors.New("one of --text or --verse is required")
			}

			req := share.CreateRequest{
				VerseID:     verseID,
				Text:        unescapeNewlines(text),
				Attribution: poet,
				Preset:      preset,
			}
			if image != "" {
				data, err := os.ReadFile(image)
				if err != nil {
					return fmt.Errorf("read background: %w", err)
				}
				req.Custom, _, err = images.Decode(data)
				if err != nil {
					return fmt.Errorf("decode background %s: %w", filepath.Base(image), err)
				}
			}

			var png []byte
			err := ctx.withApp(cmd.Context(), func(a *app) error {
				svc, err := a.renderer()
				if err != nil {
					return err
				}
				png, err = svc.Render(cmd.Context(), req)
				return err
			})
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, png, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", outPath, len(png))
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", `Verse lines; "\n" separates lines`)
	cmd.Flags().StringVar(&verseID, "verse", "", "Catalog verse id")
	cmd.Flags().StringVar(&poet, "poet", "", "Attribution line")
	cmd.Flags().StringVar(&preset, "preset", "", "Background preset (see shayari presets)")
	cmd.Flags().StringVar(&image, "image", "", "Custom background image file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "shayari.png", "Output PNG path")
	cmd.MarkFlagsMutuallyExclusive("preset", "image")

	return cmd
}

// unescapeNewlines lets shells pass multi-line text as a single argument.
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
