package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/joelazar/fancy-forms/pkg/adapters/fs"
	"github.com/joelazar/fancy-forms/pkg/adapters/memory"
	"github.com/joelazar/fancy-forms/pkg/adapters/redis"
	"github.com/joelazar/fancy-forms/pkg/adapters/sqlite"
	"github.com/joelazar/fancy-forms/pkg/core"
	"github.com/joelazar/fancy-forms/pkg/git"
)

// Init opens the store selected by the options and prepares it for use.
// The 'uri' argument is adapter-specific: a directory for 'fs', a database
// file for 'sqlite', a redis:// URL for 'redis'. It is ignored for 'memory'.
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(ctx, uri, o)
}

func initRepository(ctx context.Context, uri string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error

	switch o.adapter {
	case AdapterFS:
		repo, err = initFS(uri, o)
	case AdapterSQLite:
		repo, err = initSQLite(uri, o)
	case AdapterRedis:
		repo, err = initRedis(uri, o)
	case AdapterMemory:
		repo = memory.NewRepository()
	default:
		return nil, fmt.Errorf("unknown adapter: %s (want one of %s)", o.adapter, strings.Join(Adapters, ", "))
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(ctx); err != nil {
		if c, ok := repo.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return repo, nil
}

// initFS handles the initialization logic for the Filesystem adapter.
func initFS(path string, o *options) (core.Repository, error) {
	if path == "" {
		path = "."
	}

	// Versioning follows the directory unless configured: a .git directory
	// means git, anything else means plain files.
	gitless := true
	if o.versioning != nil {
		gitless = !*o.versioning
	} else if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		gitless = false
	}
	if !gitless && !git.IsInstalled() {
		if o.versioning != nil {
			return nil, fmt.Errorf("versioning requested but git is not installed")
		}
		gitless = true
	}

	if gitless && o.logger != nil {
		o.logger.Debug("running without versioning", "path", path)
	}

	return fs.NewRepository(fs.Config{
		Path:         path,
		AutoInit:     o.autoInit,
		Gitless:      gitless,
		MustExist:    o.mustExist || !o.autoInit,
		ReadOnly:     o.readOnly,
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		OnWatchError: o.watchErrorFn,
	}), nil
}

func initSQLite(path string, o *options) (core.Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite adapter needs a database path")
	}
	if path != sqlite.MemoryPath && !o.autoInit {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database does not exist: %s", path)
		}
	}
	return sqlite.NewRepository(path)
}

func initRedis(uri string, o *options) (core.Repository, error) {
	if uri == "" {
		uri = "redis://localhost:6379/0"
	}
	redisOpts, err := goredis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	var ropts []redis.Option
	if o.redisPrefix != "" {
		ropts = append(ropts, redis.WithPrefix(o.redisPrefix))
	}
	if o.logger != nil {
		ropts = append(ropts, redis.WithLogger(o.logger))
	}
	return redis.NewRepository(goredis.NewClient(redisOpts), ropts...), nil
}

// ValidAdapter reports whether name selects a known adapter.
func ValidAdapter(name string) bool {
	return slices.Contains(Adapters, name)
}
