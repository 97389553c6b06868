package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/storyline/internal/cli"
	"github.com/aretw0/storyline/internal/presentation/graph"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [story]",
	Short: "Export the story graph as Mermaid",
	Long: `Outputs a Mermaid diagram (graph TD) of passages and their links. With
--reader, the reader's stored passage is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var overlay *graph.GraphOverlay

		if cmd.Flags().Changed("reader") {
			reader, _ := cmd.Flags().GetInt64("reader")
			app, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			current, err := app.Store().Get(cmd.Context(), domain.ReaderID(reader))
			if err != nil && !errors.Is(err, domain.ErrProgressNotFound) {
				return err
			}
			overlay = &graph.GraphOverlay{CurrentPassage: current}
			if current != "" {
				overlay.VisitedPassages = []string{current}
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Story, overlay))
			return nil
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		story, err := cli.LoadStory(cfg.StoryFile)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(story, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int64("reader", 0, "Highlight this reader's stored passage")
}
