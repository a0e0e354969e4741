package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/pkg/client"
	"github.com/joelazar/fancy-forms/pkg/core"
)

var (
	createTitle  string
	createBody   string
	createRemote string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		var n core.Note
		var err error
		if createRemote != "" {
			n, err = client.New(createRemote).Create(ctx, createTitle, createBody)
		} else {
			svc, openErr := openService(ctx, true)
			if openErr != nil {
				fatal("Error opening store", openErr)
			}
			defer svc.Close()
			n, err = svc.CreateNote(ctx, createTitle, createBody)
		}
		if err != nil {
			fatal("Error creating note", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note created: %s\n", n.ID)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createTitle, "title", "t", "", "Note title")
	createCmd.Flags().StringVarP(&createBody, "body", "b", "", "Note body")
	createCmd.Flags().StringVar(&createRemote, "remote", "", "Create on a running server")
}
