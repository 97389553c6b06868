package main

import (
	"fmt"

	"github.com/aretw0/storyline/internal/cli"
	"github.com/aretw0/storyline/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [story]",
	Short: "Check the story for consistency",
	Long: `Parses the story strictly, then crawls it from the start passage and reports
dead links and unreachable passages.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		story, err := cli.LoadStory(cfg.StoryFile)
		if err != nil {
			return err
		}

		report := validator.Validate(story)
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Story %q is valid: %d passages, %d endings.\n",
			story.Title(), story.Len(), len(report.Terminal))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
