package platform

import (
	"log/slog"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterRedis  = "redis"
	AdapterMemory = "memory"
)

// Adapters lists every supported storage adapter.
var Adapters = []string{AdapterFS, AdapterSQLite, AdapterRedis, AdapterMemory}

// options holds the internal configuration for the notes service.
type options struct {
	repository   core.Repository
	logger       *slog.Logger
	adapter      string
	autoInit     bool
	versioning   *bool
	mustExist    bool
	readOnly     bool
	systemDir    string
	eventBuffer  int
	redisPrefix  string
	watchErrorFn func(error)
}

// Option defines a functional option for configuring the notes service.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: AdapterFS,
	}
}

// WithAutoInit creates the store when it is missing (mkdir, git init, schema).
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning enables or disables git versioning of the fs adapter.
// When unset, versioning follows the presence of a .git directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly rejects every mutation with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. mock).
// If provided, the adapter name is ignored.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory of the fs adapter. Defaults to ".notes".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithEventBuffer sets the size of each watcher buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithRedisPrefix namespaces the keys of the redis adapter.
func WithRedisPrefix(prefix string) Option {
	return func(o *options) {
		o.redisPrefix = prefix
	}
}

// WithWatcherErrorHandler registers a callback for errors raised by the fs watcher,
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.watchErrorFn = fn
	}
}
