package fancyforms

import (
	"context"
	"log/slog"

	"github.com/joelazar/fancy-forms/internal/platform"
	"github.com/joelazar/fancy-forms/pkg/core"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Configuration ---

// Option defines a functional option for configuring the notes service.
type Option = platform.Option

// Adapter names.
const (
	AdapterFS     = platform.AdapterFS
	AdapterSQLite = platform.AdapterSQLite
	AdapterRedis  = platform.AdapterRedis
	AdapterMemory = platform.AdapterMemory
)

// WithAutoInit creates the store when it is missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git versioning of Markdown notes.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every mutation.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory of the Markdown store.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEventBuffer sets the size of each watcher buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithRedisPrefix namespaces the keys of the redis adapter.
func WithRedisPrefix(prefix string) Option {
	return platform.WithRedisPrefix(prefix)
}

// WithWatcherErrorHandler registers a callback for watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Entry points ---

// New builds a ready to use note service. The caller must Close it.
func New(ctx context.Context, uri string, opts ...Option) (*core.Service, error) {
	return platform.New(ctx, uri, opts...)
}

// Init opens and prepares the store without building a service.
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	return platform.Init(ctx, uri, opts...)
}

// FindConfig returns the nearest notes.yaml at or above startDir.
func FindConfig(startDir string) (string, error) {
	return platform.FindConfig(startDir)
}
