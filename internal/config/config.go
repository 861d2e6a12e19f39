package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the chino CLI configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Retry   RetryConfig   `yaml:"retry"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds the endpoint and credentials.
type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	CustomerID  string `yaml:"customer_id"`
	CustomerKey string `yaml:"customer_key"`
	BearerToken string `yaml:"bearer_token"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// RetryConfig holds the retry policy for repeatable calls.
type RetryConfig struct {
	MaxRetries *int `yaml:"max_retries"` // nil = default, 0 disables retries
	InitialMs  int  `yaml:"initial_ms"`
	MaxMs      int  `yaml:"max_ms"`
}

// SearchConfig holds paging settings.
type SearchConfig struct {
	PageSize int `yaml:"page_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: warn)
	Format string `yaml:"format"` // console, json (default: console)
}

// Defaults.
const (
	DefaultBaseURL    = "https://api.test.chino.io/v1"
	DefaultTimeoutSec = 30
	DefaultMaxRetries = 3
	DefaultInitialMs  = 200
	DefaultMaxMs      = 5000
	DefaultPageSize   = 100
	MaxPageSize       = 100
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from a YAML file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a configuration from CHINO_* variables only.
func FromEnv() (Config, error) {
	var cfg Config
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Exists reports whether a config file for env can be found.
func Exists(env string) bool {
	return fileExists(findConfigPath(env))
}

// ApplyEnv overrides credentials with CHINO_* variables when they are set.
func (c *Config) ApplyEnv() {
	override := func(dst *string, name string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	override(&c.API.BaseURL, "CHINO_BASE_URL")
	override(&c.API.CustomerID, "CHINO_CUSTOMER_ID")
	override(&c.API.CustomerKey, "CHINO_CUSTOMER_KEY")
	override(&c.API.BearerToken, "CHINO_BEARER_TOKEN")
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = DefaultTimeoutSec
	}
	if c.Retry.MaxRetries == nil {
		n := DefaultMaxRetries
		c.Retry.MaxRetries = &n
	}
	if c.Retry.InitialMs <= 0 {
		c.Retry.InitialMs = DefaultInitialMs
	}
	if c.Retry.MaxMs <= 0 {
		c.Retry.MaxMs = DefaultMaxMs
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = DefaultPageSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if (c.API.CustomerID == "") != (c.API.CustomerKey == "") {
		return errors.New("api.customer_id and api.customer_key must be set together")
	}
	if c.API.CustomerID != "" && c.API.BearerToken != "" {
		return errors.New("api.bearer_token cannot be combined with customer credentials")
	}
	if n := c.Retry.MaxRetries; n != nil && (*n < 0 || *n > 10) {
		return fmt.Errorf("retry.max_retries must be between 0 and 10, got %d", *n)
	}
	if c.Retry.MaxMs < c.Retry.InitialMs {
		return fmt.Errorf("retry.max_ms (%d) must not be lower than retry.initial_ms (%d)",
			c.Retry.MaxMs, c.Retry.InitialMs)
	}
	if c.Search.PageSize > MaxPageSize {
		return fmt.Errorf("search.page_size must be at most %d, got %d", MaxPageSize, c.Search.PageSize)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration { return time.Duration(c.API.TimeoutSec) * time.Second }

// RetryInitial returns the first retry interval.
func (c *Config) RetryInitial() time.Duration { return time.Duration(c.Retry.InitialMs) * time.Millisecond }

// RetryMax returns the retry interval cap.
func (c *Config) RetryMax() time.Duration { return time.Duration(c.Retry.MaxMs) * time.Millisecond }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
