package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/internal/platform"
)

var initGit bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the note store",
	Long: `Initialize creates the configured store: the notes directory (with git
versioning when --git is given), the SQLite schema, or checks the Redis connection.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		opts := append(cfg.PlatformOptions(), platform.WithAutoInit(true))
		if initGit {
			opts = append(opts, platform.WithVersioning(true))
		}

		repo, err := platform.Init(ctx, cfg.Store, opts...)
		if err != nil {
			fatal("Failed to initialize store", err)
		}
		if c, ok := repo.(interface{ Close() error }); ok {
			_ = c.Close()
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s store at %s\n", cfg.Adapter, cfg.Store)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initGit, "git", false, "Version Markdown notes with git")
}
