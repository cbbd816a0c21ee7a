package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-authoring/internal/slides"
	"github.com/mind-engage/mindengage-authoring/internal/slug"
)

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func newSegmentCommand() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "segment <file|->",
		Short: "Split module HTML into slides and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			out, strategy := slides.SegmentDetailed(string(src), title)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"strategy": strategy, "slides": out})
		},
	}
	cmd.Flags().StringVar(&title, "title", "Slide 1", "Title used when the content has no slide structure")
	return cmd
}

func newAssembleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble <file|->",
		Short: "Render a JSON slide list back into module HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			// accept either a bare list or the output of segment
			var list []slides.Slide
			if err := json.Unmarshal(src, &list); err != nil {
				var wrapped struct {
					Slides []slides.Slide `json:"slides"`
				}
				if err2 := json.Unmarshal(src, &wrapped); err2 != nil {
					return fmt.Errorf("parse slides: %w", err)
				}
				list = wrapped.Slides
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), slides.Assemble(list))
			return err
		},
	}
}

func newSlugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <name>",
		Short: "Print a unique URL slug for a path name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), slug.Slugify(args[0]))
			return err
		},
	}
}
