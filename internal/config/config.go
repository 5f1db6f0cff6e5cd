// Package config loads the apertium-stats YAML configuration.
//
// Values may reference the environment as ${VAR} or ${VAR:-default}.
// Unset fields take the defaults below, and a few environment variables
// override the file outright.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load
const (
	EnvConfigPath  = "APERTIUM_STATS_CONFIG"
	EnvDatabase    = "APERTIUM_STATS_DB"
	EnvGitHubToken = "GITHUB_AUTH_TOKEN"
)

// Defaults
const (
	DefaultDatabase         = "apertium-stats.db"
	DefaultLogLevel         = "info"
	DefaultOrganizationRoot = "https://github.com/apertium"
	DefaultRawRoot          = "https://raw.githubusercontent.com/apertium"
	DefaultSVN              = "svn"
	DefaultHashConcurrency  = 4
	DefaultHashCacheSize    = 4096
	DefaultFetchTimeout     = 30 * time.Second
	DefaultFetchAttempts    = 3
	DefaultFetchBaseDelay   = 200 * time.Millisecond
	DefaultFetchMaxDelay    = 2 * time.Second
	DefaultRedisChannel     = "apertium-stats:computed"
	DefaultRedisTimeout     = 5 * time.Second
	DefaultRedisRetries     = 3
)

// Config is the root of apertium-stats.yaml
type Config struct {
	Database string        `yaml:"database"`
	LogLevel string        `yaml:"log_level"`
	Workers  int           `yaml:"workers"`
	GitHub   GitHubConfig  `yaml:"github"`
	Listing  ListingConfig `yaml:"listing"`
	Fetch    FetchConfig   `yaml:"fetch"`
	Rlx      RlxConfig     `yaml:"rlx"`
	Redis    RedisConfig   `yaml:"redis"`
}

// GitHubConfig configures raw content access
type GitHubConfig struct {
	Token   string `yaml:"token"`
	RawRoot string `yaml:"raw_root"`
}

// ListingConfig configures the svn listing client
type ListingConfig struct {
	OrganizationRoot string `yaml:"organization_root"`
	SVN              string `yaml:"svn"`
	HashConcurrency  int    `yaml:"hash_concurrency"`
	HashCacheSize    int    `yaml:"hash_cache_size"`
}

// FetchConfig configures HTTP fetch timeouts and retries
type FetchConfig struct {
	Timeout     Duration `yaml:"timeout"`
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
}

// RlxConfig selects how rlx rules are counted
type RlxConfig struct {
	// Compiler is the cg-comp binary. Empty uses the built-in parser.
	Compiler string `yaml:"compiler"`
}

// RedisConfig configures the optional stats-computed notifier
type RedisConfig struct {
	URL     string   `yaml:"url"`
	Channel string   `yaml:"channel"`
	Timeout Duration `yaml:"timeout"`
	Retries *int     `yaml:"retries,omitempty"`
}

// Enabled reports whether a notifier should be created
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns a Config with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, expands environment references,
// applies environment overrides and fills defaults. An empty path
// loads defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
		}

		if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath returns flagValue, or the path from APERTIUM_STATS_CONFIG
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.GitHub.RawRoot == "" {
		c.GitHub.RawRoot = DefaultRawRoot
	}
	if c.Listing.OrganizationRoot == "" {
		c.Listing.OrganizationRoot = DefaultOrganizationRoot
	}
	if c.Listing.SVN == "" {
		c.Listing.SVN = DefaultSVN
	}
	if c.Listing.HashConcurrency <= 0 {
		c.Listing.HashConcurrency = DefaultHashConcurrency
	}
	if c.Listing.HashCacheSize <= 0 {
		c.Listing.HashCacheSize = DefaultHashCacheSize
	}
	if c.Fetch.Timeout.Duration <= 0 {
		c.Fetch.Timeout.Duration = DefaultFetchTimeout
	}
	if c.Fetch.MaxAttempts <= 0 {
		c.Fetch.MaxAttempts = DefaultFetchAttempts
	}
	if c.Fetch.BaseDelay.Duration <= 0 {
		c.Fetch.BaseDelay.Duration = DefaultFetchBaseDelay
	}
	if c.Fetch.MaxDelay.Duration <= 0 {
		c.Fetch.MaxDelay.Duration = DefaultFetchMaxDelay
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = DefaultRedisChannel
	}
	if c.Redis.Timeout.Duration <= 0 {
		c.Redis.Timeout.Duration = DefaultRedisTimeout
	}
	if c.Redis.Retries == nil {
		retries := DefaultRedisRetries
		c.Redis.Retries = &retries
	}
}

// Validate checks values that have no usable default
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Fetch.BaseDelay.Duration > c.Fetch.MaxDelay.Duration {
		errs = append(errs, fmt.Errorf("fetch.base_delay %s exceeds fetch.max_delay %s",
			c.Fetch.BaseDelay.Duration, c.Fetch.MaxDelay.Duration))
	}
	if c.Redis.Retries != nil && *c.Redis.Retries < 0 {
		errs = append(errs, fmt.Errorf("redis.retries must be >= 0, got %d", *c.Redis.Retries))
	}
	return errors.Join(errs...)
}
