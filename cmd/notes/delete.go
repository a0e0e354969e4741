package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/pkg/client"
	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/view"
)

var (
	deleteYes    bool
	deleteRemote string
)

var deleteCmd = &cobra.Command{
	Use:   "delete id...",
	Short: "Delete notes",
	Long: `Delete asks for confirmation before removing each note unless --yes is given.
With --remote, confirmed deletes are sent to the server concurrently and each
failed note is reported so it can be retried.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		confirmer := view.AlwaysConfirm
		if !deleteYes {
			confirmer = newPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
		}

		var failed bool
		if deleteRemote != "" {
			failed = deleteRemotely(cmd.Context(), cmd.OutOrStdout(), client.New(deleteRemote), confirmer, args)
		} else {
			failed = deleteLocally(cmd.Context(), cmd.OutOrStdout(), confirmer, args)
		}
		if failed {
			fatal("Error deleting notes", errors.New("some deletes failed"))
		}
	},
}

func deleteLocally(ctx context.Context, out io.Writer, confirmer view.Confirmer, ids []string) bool {
	svc, err := openService(ctx, false)
	if err != nil {
		fatal("Error opening store", err)
	}
	defer svc.Close()

	failed := false
	for _, id := range ids {
		n, err := svc.GetNote(ctx, id)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", id, err)
			failed = true
			continue
		}
		if !confirmer.Confirm(n) {
			fmt.Fprintf(out, "%s: skipped\n", id)
			continue
		}
		if _, err := svc.DeleteNote(ctx, id); err != nil {
			fmt.Fprintf(out, "%s: %v\n", id, err)
			failed = true
			continue
		}
		fmt.Fprintf(out, "Note deleted: %s\n", id)
	}
	return failed
}

// deleteRemotely drives the same optimistic controller as the page.
func deleteRemotely(ctx context.Context, out io.Writer, remote view.Remote, confirmer view.Confirmer, ids []string) bool {
	ctl := view.NewController(remote, view.WithConfirmer(confirmer))
	if err := ctl.Reload(ctx); err != nil {
		fatal("Error loading notes", err)
	}

	results := ctl.DeleteAll(ctx, ids...)
	snap := ctl.Snapshot()

	failed := false
	for _, id := range ids {
		err, seen := results[id]
		if !seen {
			continue
		}
		delete(results, id)
		switch {
		case err == nil:
			fmt.Fprintf(out, "Note deleted: %s\n", id)
		case errors.Is(err, view.ErrNotConfirmed):
			fmt.Fprintf(out, "%s: skipped\n", id)
		case errors.Is(err, core.ErrNotFound):
			fmt.Fprintf(out, "Note deleted: %s (already gone)\n", id)
		default:
			failed = true
			label := view.LabelDelete
			if snap.Failed[id] {
				label = view.LabelRetry
			}
			fmt.Fprintf(out, "%s: %v [%s]\n", id, err, label)
		}
	}
	return failed
}

type prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompt(in io.Reader, out io.Writer) *prompt {
	return &prompt{in: bufio.NewReader(in), out: out}
}

// Confirm asks "Are you sure?" and accepts y or yes.
func (p *prompt) Confirm(n core.Note) bool {
	name := n.ID
	if n.Title != "" {
		name = fmt.Sprintf("%q (%s)", n.Title, n.ID)
	}
	fmt.Fprintf(p.out, "Delete %s? Are you sure? [y/N] ", name)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
	deleteCmd.Flags().StringVar(&deleteRemote, "remote", "", "Delete on a running server")
}
