package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/pkg/adapters/lifecycle"
	"github.com/joelazar/fancy-forms/pkg/core"
)

var watchOnly []string

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Stream note changes",
	Long: `Watch prints CREATE and DELETE events for notes whose id matches the
glob pattern (default "**"). Changes made by other processes are included
when the store supports it.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		for _, t := range watchOnly {
			switch core.EventType(strings.ToUpper(t)) {
			case core.EventCreate, core.EventDelete:
			default:
				fatal("Invalid --only value", fmt.Errorf("unknown event type %q (want create or delete)", t))
			}
		}

		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		svc, err := openService(ctx, false)
		if err != nil {
			fatal("Error opening store", err)
		}
		defer svc.Close()

		events, err := svc.Watch(ctx, pattern)
		if err != nil {
			fatal("Error watching store", err)
		}

		var opts []lifecycle.SourceOption
		for _, t := range watchOnly {
			opts = append(opts, lifecycle.Only(core.EventType(strings.ToUpper(t))))
		}
		src := lifecycle.NewSource(events, opts...)
		if err := src.Start(ctx); err != nil {
			fatal("Error watching store", err)
		}
		for e := range src.Events() {
			fmt.Fprintln(cmd.OutOrStdout(), e)
		}
	},
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "Only print these event types (create, delete)")
	rootCmd.AddCommand(watchCmd)
}
