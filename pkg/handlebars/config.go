package handlebars

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the Handlebars engine
type Config struct {
	// CacheMaxSize is the maximum number of compiled templates an Engine keeps
	// by name. 0, the default, keeps every template until it is removed.
	CacheMaxSize int
	// CacheTTL is the time-to-live for compiled templates. 0 means no expiration.
	CacheTTL time.Duration
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// MaxRenderDepth bounds how deeply partials may nest during one render
	MaxRenderDepth int
	// SanitizeRaw runs unescaped {{{output}}} through an HTML sanitizer
	SanitizeRaw bool
}

var (
	globalConfig      = ConfigFromEnvironment()
	globalConfigMutex sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:   0,
		CacheTTL:       0,
		LogLevel:       "info",
		MaxRenderDepth: 100,
		SanitizeRaw:    false,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// HANDLEBARS_CACHE_MAX_SIZE
	if val := os.Getenv("HANDLEBARS_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	// HANDLEBARS_CACHE_TTL
	if val := os.Getenv("HANDLEBARS_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	// HANDLEBARS_LOG_LEVEL
	if val := os.Getenv("HANDLEBARS_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	// HANDLEBARS_MAX_RENDER_DEPTH
	if val := os.Getenv("HANDLEBARS_MAX_RENDER_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			config.MaxRenderDepth = depth
		}
	}

	// HANDLEBARS_SANITIZE_RAW
	if val := os.Getenv("HANDLEBARS_SANITIZE_RAW"); val != "" {
		config.SanitizeRaw = parseBool(val)
	}

	return config
}

// configFile mirrors Config for YAML decoding; durations are written as
// strings such as "10m".
type configFile struct {
	CacheMaxSize   *int    `yaml:"cache_max_size"`
	CacheTTL       *string `yaml:"cache_ttl"`
	LogLevel       *string `yaml:"log_level"`
	MaxRenderDepth *int    `yaml:"max_render_depth"`
	SanitizeRaw    *bool   `yaml:"sanitize_raw"`
}

// LoadConfigFile reads a YAML configuration file. Keys missing from the file
// keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration data on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config := DefaultConfig()
	if file.CacheMaxSize != nil {
		config.CacheMaxSize = *file.CacheMaxSize
	}
	if file.CacheTTL != nil {
		ttl, err := time.ParseDuration(*file.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache_ttl %q: %w", *file.CacheTTL, err)
		}
		config.CacheTTL = ttl
	}
	if file.LogLevel != nil {
		config.LogLevel = strings.ToLower(strings.TrimSpace(*file.LogLevel))
	}
	if file.MaxRenderDepth != nil {
		config.MaxRenderDepth = *file.MaxRenderDepth
	}
	if file.SanitizeRaw != nil {
		config.SanitizeRaw = *file.SanitizeRaw
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.MaxRenderDepth == 0 {
		config.MaxRenderDepth = defaults.MaxRenderDepth
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxRenderDepth <= 0 {
		return errors.New("max render depth must be positive")
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
