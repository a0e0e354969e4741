package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/pkg/client"
	"github.com/joelazar/fancy-forms/pkg/core"
)

var (
	listJSON   bool
	listRemote string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		var notes []core.Note
		var err error
		if listRemote != "" {
			notes, err = client.New(listRemote).List(ctx)
		} else {
			svc, openErr := openService(ctx, false)
			if openErr != nil {
				fatal("Error opening store", openErr)
			}
			defer svc.Close()
			notes, err = svc.ListNotes(ctx)
		}
		if err != nil {
			fatal("Error listing notes", err)
		}

		if err := printNotes(cmd.OutOrStdout(), notes, listJSON); err != nil {
			fatal("Error encoding notes", err)
		}
	},
}

func printNotes(w io.Writer, notes []core.Note, asJSON bool) error {
	if asJSON {
		if notes == nil {
			notes = []core.Note{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(notes)
	}
	for _, n := range notes {
		fmt.Fprintf(w, "%s  %s  %s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Title)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listRemote, "remote", "", "List from a running server (e.g. http://127.0.0.1:3000)")
}
