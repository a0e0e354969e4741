package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/pkg/core"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the change history of a versioned store",
	Long: `Log prints one line per recorded create or delete, newest first.
Only Markdown stores initialized with --git keep a history.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		svc, err := openService(ctx, false)
		if err != nil {
			fatal("Error opening store", err)
		}
		defer svc.Close()

		if err := printHistory(ctx, cmd.OutOrStdout(), svc, logLimit); err != nil {
			fatal("Error reading history", err)
		}
	},
}

type historian interface {
	History(ctx context.Context) ([]string, error)
}

// printHistory writes at most limit entries; limit <= 0 prints all.
func printHistory(ctx context.Context, w io.Writer, h historian, limit int) error {
	entries, err := h.History(ctx)
	if errors.Is(err, core.ErrNoHistory) {
		return fmt.Errorf("%w (run `notes init --git` on a Markdown store)", err)
	}
	if err != nil {
		return err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for _, e := range entries {
		fmt.Fprintln(w, e)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "Show at most this many entries")
}
