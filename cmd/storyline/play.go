package main

import (
	"os"

	"github.com/aretw0/storyline/internal/cli"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play [story]",
	Short: "Play the story in the terminal",
	Long: `Plays the story for one reader on standard input/output, resuming from the
reader's stored passage. Answer with a choice number or its label; type "quit"
to stop. With --json, messages and choices are JSON lines for headless hosts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, _ := cmd.Flags().GetInt64("reader")
		jsonMode, _ := cmd.Flags().GetBool("json")

		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pretty := !jsonMode &&
			term.IsTerminal(int(os.Stdin.Fd())) &&
			term.IsTerminal(int(os.Stdout.Fd()))

		return cli.RunSession(cmd.Context(), app, cli.PlayOptions{
			Reader: domain.ReaderID(reader),
			JSON:   jsonMode,
			Pretty: pretty,
			In:     os.Stdin,
			Out:    os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Int64("reader", 1, "Reader id whose progress is used")
	playCmd.Flags().Bool("json", false, "Run in JSON mode (JSON-Lines input/output)")
}
