// Package config loads runtime settings from defaults, EINVOICE_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. EINVOICE_ADDRESS
const EnvPrefix = "EINVOICE"

// Default values
const (
	DefaultAddress        = ":8080"
	DefaultLogLevel       = "info"
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 2 * time.Minute
	DefaultMaxBodyBytes   = 32 << 20 // 32MiB
	DefaultRateLimitEvery = 600 * time.Millisecond
	DefaultRateLimitBurst = 20
	DefaultConcurrency    = 4
)

// Keys
const (
	KeyAddress        = "address"
	KeyDebug          = "debug"
	KeyLogLevel       = "log_level"
	KeyReadTimeout    = "read_timeout"
	KeyWriteTimeout   = "write_timeout"
	KeyMaxBodyBytes   = "max_body_bytes"
	KeyRateLimitEvery = "rate_limit_every"
	KeyRateLimitBurst = "rate_limit_burst"
	KeyConcurrency    = "concurrency"
	KeyPDFPassword    = "pdf_password"
)

// Config holds all runtime settings
type Config struct {
	// Server
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
	RateLimitEvery time.Duration
	RateLimitBurst int

	// Logging
	Debug    bool
	LogLevel string

	// Extraction
	Concurrency int
	PDFPassword string
}

// DefaultConfig returns a configuration with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Address:        DefaultAddress,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		RateLimitEvery: DefaultRateLimitEvery,
		RateLimitBurst: DefaultRateLimitBurst,
		LogLevel:       DefaultLogLevel,
		Concurrency:    DefaultConcurrency,
	}
}

// New returns a viper instance with defaults and environment lookup set up
func New() *viper.Viper {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAddress, cfg.Address)
	v.SetDefault(KeyDebug, cfg.Debug)
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyReadTimeout, cfg.ReadTimeout)
	v.SetDefault(KeyWriteTimeout, cfg.WriteTimeout)
	v.SetDefault(KeyMaxBodyBytes, cfg.MaxBodyBytes)
	v.SetDefault(KeyRateLimitEvery, cfg.RateLimitEvery)
	v.SetDefault(KeyRateLimitBurst, cfg.RateLimitBurst)
	v.SetDefault(KeyConcurrency, cfg.Concurrency)
	v.SetDefault(KeyPDFPassword, cfg.PDFPassword)

	return v
}

// BindFlags binds every flag of fs whose name, with dashes replaced by
// underscores, is a known key. Flags only override other sources when
// they were set explicitly.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKey(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load populates and validates a Config from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Address:        v.GetString(KeyAddress),
		ReadTimeout:    v.GetDuration(KeyReadTimeout),
		WriteTimeout:   v.GetDuration(KeyWriteTimeout),
		MaxBodyBytes:   v.GetInt64(KeyMaxBodyBytes),
		RateLimitEvery: v.GetDuration(KeyRateLimitEvery),
		RateLimitBurst: v.GetInt(KeyRateLimitBurst),
		Debug:          v.GetBool(KeyDebug),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		Concurrency:    v.GetInt(KeyConcurrency),
		PDFPassword:    v.GetString(KeyPDFPassword),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("address cannot be empty")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("maximum body size must be positive")
	}
	if c.RateLimitEvery <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate limit interval and burst must be positive")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func isKey(key string) bool {
	switch key {
	case KeyAddress, KeyDebug, KeyLogLevel, KeyReadTimeout, KeyWriteTimeout,
		KeyMaxBodyBytes, KeyRateLimitEvery, KeyRateLimitBurst, KeyConcurrency, KeyPDFPassword:
		return true
	}
	return false
}
