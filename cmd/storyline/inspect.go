package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/storyline/internal/cli"
	"github.com/aretw0/storyline/internal/runtime"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [story]",
	Short: "Print every passage as a reader would see it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		passage, _ := cmd.Flags().GetString("passage")

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		story, err := cli.LoadStory(cfg.StoryFile)
		if err != nil {
			return err
		}

		var out any = runtime.Inspect(story)
		if passage != "" {
			view, err := runtime.InspectPassage(story, passage)
			if err != nil {
				return err
			}
			out = view
		}

		w := cmd.OutOrStdout()
		switch format {
		case "yaml":
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		return fmt.Errorf("unknown format %q (use yaml or json)", format)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or json")
	inspectCmd.Flags().StringP("passage", "p", "", "Inspect a single passage")
}
