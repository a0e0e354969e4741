package main

import (
	"fmt"

	"github.com/spf13/cobra"

	fancyforms "github.com/joelazar/fancy-forms"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notes version %s\n", fancyforms.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
