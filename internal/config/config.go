// Package config resolves the server and CLI settings.
//
// Priority: CLI flags > NOTES_* environment variables > notes.yaml > defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joelazar/fancy-forms/internal/platform"
	"github.com/joelazar/fancy-forms/pkg/chaos"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NOTES_"

// Config holds the unified application configuration.
type Config struct {
	Addr        string        `yaml:"addr"`
	Adapter     string        `yaml:"adapter"`
	Store       string        `yaml:"store"`
	Versioning  bool          `yaml:"versioning"`
	RedisPrefix string        `yaml:"redis_prefix"`
	FailureRate float64       `yaml:"failure_rate"`
	DeleteDelay time.Duration `yaml:"delete_delay"`
	RateLimit   float64       `yaml:"rate_limit"` // mutations per second per client, 0 disables
	RateBurst   int           `yaml:"rate_burst"`
	LogLevel    string        `yaml:"log_level"`
}

// Overrides carries the flags the user actually set. Nil fields are ignored.
type Overrides struct {
	Addr        *string
	Adapter     *string
	Store       *string
	FailureRate *float64
	DeleteDelay *time.Duration
	LogLevel    *string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:        "127.0.0.1:3000",
		Adapter:     platform.AdapterFS,
		FailureRate: chaos.DefaultFailureRate,
		DeleteDelay: chaos.DefaultDelay,
		RateLimit:   10,
		RateBurst:   20,
		LogLevel:    "info",
	}
}

// Load builds the configuration. An empty path searches the working directory
// and its parents for platform.ConfigFileName; an explicit path must exist.
// A relative store path read from the file is resolved against the file's
// directory, so the CLI works from any sub-directory of a project.
func Load(path string, flags Overrides) (*Config, error) {
	cfg := Default()

	if path == "" {
		if found, err := platform.FindConfig("."); err == nil {
			path = found
		} else if !errors.Is(err, platform.ErrNoConfig) {
			return nil, err
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.apply(flags)

	if cfg.Store == "" {
		cfg.Store = DefaultStore(cfg.Adapter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	// Store has no default yet, so a value here came from the file.
	if c.Store != "" && isPathAdapter(c.Adapter) && !filepath.IsAbs(c.Store) {
		c.Store = filepath.Join(filepath.Dir(path), c.Store)
	}
	return nil
}

func isPathAdapter(adapter string) bool {
	return adapter == platform.AdapterFS || adapter == platform.AdapterSQLite
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Addr)
	str("ADAPTER", &c.Adapter)
	str("STORE", &c.Store)
	str("REDIS_PREFIX", &c.RedisPrefix)
	str("LOG_LEVEL", &c.LogLevel)

	var errs []error
	parse := func(name string, fn func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	parse("VERSIONING", func(v string) (err error) {
		c.Versioning, err = strconv.ParseBool(v)
		return err
	})
	parse("FAILURE_RATE", func(v string) (err error) {
		c.FailureRate, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("DELETE_DELAY", func(v string) (err error) {
		c.DeleteDelay, err = time.ParseDuration(v)
		return err
	})
	parse("RATE_LIMIT", func(v string) (err error) {
		c.RateLimit, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("RATE_BURST", func(v string) (err error) {
		c.RateBurst, err = strconv.Atoi(v)
		return err
	})
	return errors.Join(errs...)
}

func (c *Config) apply(o Overrides) {
	if o.Addr != nil {
		c.Addr = *o.Addr
	}
	if o.Adapter != nil {
		c.Adapter = *o.Adapter
	}
	if o.Store != nil {
		c.Store = *o.Store
	}
	if o.FailureRate != nil {
		c.FailureRate = *o.FailureRate
	}
	if o.DeleteDelay != nil {
		c.DeleteDelay = *o.DeleteDelay
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if !platform.ValidAdapter(c.Adapter) {
		errs = append(errs, fmt.Errorf("unknown adapter %q (want one of %s)", c.Adapter, strings.Join(platform.Adapters, ", ")))
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("failure_rate must be between 0 and 1, got %v", c.FailureRate))
	}
	if c.DeleteDelay < 0 {
		errs = append(errs, fmt.Errorf("delete_delay must not be negative"))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, fmt.Errorf("rate_limit and rate_burst must not be negative"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// PlatformOptions translates the store settings into platform options.
func (c *Config) PlatformOptions() []platform.Option {
	opts := []platform.Option{
		platform.WithAdapter(c.Adapter),
	}
	if c.Versioning {
		opts = append(opts, platform.WithVersioning(true))
	}
	if c.RedisPrefix != "" {
		opts = append(opts, platform.WithRedisPrefix(c.RedisPrefix))
	}
	return opts
}

// DefaultStore returns the store location used when none is configured.
func DefaultStore(adapter string) string {
	switch adapter {
	case platform.AdapterSQLite:
		return "notes.db"
	case platform.AdapterRedis:
		return "redis://localhost:6379/0"
	case platform.AdapterMemory:
		return ""
	default:
		return "notes"
	}
}
