package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/storyline/internal/cli"
	"github.com/aretw0/storyline/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storyline",
	Short: "Storyline plays Twee interactive fiction one choice at a time",
	Long: `Storyline loads a Twee 3 story and walks readers through it, one passage
and one choice at a time, remembering where each reader left off.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().String("story", "", "Twee story file (overrides story_file)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the layered configuration and applies persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if story, _ := cmd.Flags().GetString("story"); story != "" {
		cfg.StoryFile = story
	} else if arg := cmd.Flags().Arg(0); arg != "" {
		cfg.StoryFile = arg
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openApp loads configuration, story and store. The caller must Close it.
func openApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Open(ctx, cfg, logger)
}
