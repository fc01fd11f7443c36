package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/wbrown/janus-aql/aql/executor"
	"github.com/wbrown/janus-aql/aql/storage"
)

// Config is the optional TOML configuration file. Command line flags take
// precedence over values read from it.
type Config struct {
	DB       string `toml:"db"`
	Verbose  bool   `toml:"verbose"`
	LogLevel string `toml:"log_level"`

	Storage   StorageConfig   `toml:"storage"`
	Planner   PlannerConfig   `toml:"planner"`
	PlanCache PlanCacheConfig `toml:"plan_cache"`
}

type StorageConfig struct {
	SyncWrites bool `toml:"sync_writes"`
}

type PlannerConfig struct {
	IndexSelection    *bool `toml:"index_selection"`
	PredicatePushdown *bool `toml:"predicate_pushdown"`
}

type PlanCacheConfig struct {
	Size int    `toml:"size"`
	TTL  string `toml:"ttl"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		PlanCache: PlanCacheConfig{
			Size: 1000,
			TTL:  "5m",
		},
	}
}

// LoadConfig reads path over the defaults. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	if _, err := cfg.planCacheTTL(); err != nil {
		return cfg, err
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("invalid log_level: %w", err)
	}
	return cfg, nil
}

func (c Config) planCacheTTL() (time.Duration, error) {
	if c.PlanCache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.PlanCache.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid plan_cache.ttl: %w", err)
	}
	return d, nil
}

// ExecutorOptions maps the configuration onto executor options.
func (c Config) ExecutorOptions() executor.Options {
	opts := executor.DefaultOptions()
	if c.Planner.IndexSelection != nil {
		opts.Planner.EnableIndexSelection = *c.Planner.IndexSelection
	}
	if c.Planner.PredicatePushdown != nil {
		opts.Planner.EnablePredicatePushdown = *c.Planner.PredicatePushdown
	}
	opts.PlanCacheSize = c.PlanCache.Size
	if ttl, err := c.planCacheTTL(); err == nil && ttl > 0 {
		opts.PlanCacheTTL = ttl
	}
	return opts
}

// StorageOptions maps the configuration onto storage options.
func (c Config) StorageOptions(log logrus.FieldLogger) storage.Options {
	opts := storage.DefaultOptions()
	opts.Logger = log
	opts.SyncWrites = c.Storage.SyncWrites
	return opts
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	return log
}
