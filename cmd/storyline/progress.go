package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect stored reader progress",
}

var progressGetCmd = &cobra.Command{
	Use:   "get <reader-id>",
	Short: "Print the stored passage of a reader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := domain.ParseReaderID(args[0])
		if err != nil {
			return fmt.Errorf("invalid reader id %q: %w", args[0], err)
		}

		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		passage, err := app.Store().Get(cmd.Context(), reader)
		if errors.Is(err, domain.ErrProgressNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "Reader %d has not started yet.\n", int64(reader))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), passage)
		return nil
	},
}

var progressLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every reader's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		rows, err := app.Sessions.List(cmd.Context())
		if errors.Is(err, ports.ErrListUnsupported) {
			return fmt.Errorf("store driver %q cannot list progress", app.Config.Store.Driver)
		}
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No reader progress found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "READER\tPASSAGE\tUPDATED")
		for _, r := range rows {
			updated := "-"
			if !r.UpdatedAt.IsZero() {
				updated = r.UpdatedAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", int64(r.ReaderID), r.CurrentPassage, updated)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressGetCmd, progressLsCmd)
}
