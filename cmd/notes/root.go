package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joelazar/fancy-forms/internal/config"
	"github.com/joelazar/fancy-forms/internal/platform"
	"github.com/joelazar/fancy-forms/pkg/core"
)

var (
	verbose    bool
	logLevel   string
	configPath string
	adapter    string
	store      string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "A small notes page with optimistic deletes that fail on purpose",
	Long: `notes serves a single page listing notes with forms to create and delete them.
Deletes are slow and fail at random so the optimistic UI and its retry path can be exercised.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var flags config.Overrides
		if cmd.Flags().Changed("adapter") {
			flags.Adapter = &adapter
		}
		if cmd.Flags().Changed("store") {
			flags.Store = &store
		}
		if cmd.Flags().Changed("log-level") {
			flags.LogLevel = &logLevel
		}
		collectServeOverrides(cmd, &flags)

		loaded, err := config.Load(configPath, flags)
		if err != nil {
			return err
		}
		cfg = loaded

		level, _ := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService opens the configured store. autoInit creates it when missing.
func openService(ctx context.Context, autoInit bool) (*core.Service, error) {
	opts := append(cfg.PlatformOptions(),
		platform.WithAutoInit(autoInit),
		platform.WithLogger(slog.Default()),
	)
	return platform.New(ctx, cfg.Store, opts...)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: nearest notes.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", platform.AdapterFS, "Storage adapter: fs, sqlite, redis or memory")
	rootCmd.PersistentFlags().StringVar(&store, "store", "", "Store location: directory, database file or redis:// URL")
}
