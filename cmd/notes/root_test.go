package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and restores the global state after the test.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	prevLogger := slog.Default()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		logLevel = "info"
		verbose = false
		for _, name := range []string{"log-level", "verbose"} {
			rootCmd.PersistentFlags().Lookup(name).Changed = false
		}
		slog.SetDefault(prevLogger)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestLogLevelFlag(t *testing.T) {
	t.Run("Sets The Level", func(t *testing.T) {
		out, err := execute(t, "--log-level", "warn", "version")
		require.NoError(t, err)
		assert.Contains(t, out, "notes version")
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
	})

	t.Run("Overrides The Environment", func(t *testing.T) {
		t.Setenv("NOTES_LOG_LEVEL", "error")
		_, err := execute(t, "--log-level", "debug", "version")
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("Verbose Wins", func(t *testing.T) {
		_, err := execute(t, "--log-level", "error", "-v", "version")
		require.NoError(t, err)
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("Rejects Unknown Levels", func(t *testing.T) {
		_, err := execute(t, "--log-level", "loud", "version")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_level")
	})
}
