// File: config/config.go

// Package config holds process configuration for promptstorm and the
// immutable OptimizationConfig value threaded through the core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/utils"
)

const (
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultLanguage    = "english"

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "PROMPTSTORM_"
)

type Config struct {
	Provider          string            `env:"PROVIDER" yaml:"provider" validate:"required"`
	Model             string            `env:"MODEL" yaml:"model" validate:"required"`
	Endpoint          string            `env:"ENDPOINT" yaml:"endpoint"`
	Temperature       float64           `env:"TEMPERATURE" yaml:"temperature" validate:"gte=0,lte=1"`
	MaxTokens         int               `env:"MAX_TOKENS" yaml:"max_tokens" validate:"min=1"`
	Language          string            `env:"LANGUAGE" yaml:"language" validate:"required"`
	Template          string            `env:"TEMPLATE" yaml:"template" validate:"required,contains={prompt}"`
	RequiredFields    []string          `env:"REQUIRED_FIELDS" envSeparator:"," yaml:"required_fields" validate:"min=1,dive,required"`
	Timeout           time.Duration     `env:"TIMEOUT" yaml:"timeout" validate:"gt=0"`
	MaxRetries        int               `env:"MAX_RETRIES" yaml:"max_retries" validate:"gte=0"`
	RetryDelay        time.Duration     `env:"RETRY_DELAY" yaml:"retry_delay" validate:"gte=0"`
	RequestsPerMinute int               `env:"REQUESTS_PER_MINUTE" yaml:"requests_per_minute" validate:"gte=0"`
	EstimateTokens    bool              `env:"ESTIMATE_TOKENS" yaml:"estimate_tokens"`
	LogLevel          utils.LogLevel    `env:"LOG_LEVEL" yaml:"log_level"`
	LogFormat         string            `env:"LOG_FORMAT" yaml:"log_format" validate:"oneof=text json"`
	APIKeys           map[string]string `yaml:"-"`
}

var validate = validator.New()

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Provider:       DefaultProvider,
		Model:          DefaultModel,
		Temperature:    DefaultTemperature,
		MaxTokens:      DefaultMaxTokens,
		Language:       DefaultLanguage,
		Template:       DefaultOptimizationTemplate,
		RequiredFields: slices.Clone(document.DefaultRequiredFields),
		Timeout:        60 * time.Second,
		MaxRetries:     2,
		RetryDelay:     2 * time.Second,
		LogLevel:       utils.LogLevelWarn,
		LogFormat:      "text",
		APIKeys:        make(map[string]string),
	}
}

// LoadConfig layers defaults, the optional YAML file at path and the
// environment, in that order. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	loadAPIKeys(cfg)
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath is ~/.promptstorm/config.yaml, or "" when the home
// directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".promptstorm", "config.yaml")
}

// ExistingDefaultConfigPath returns DefaultConfigPath if the file exists.
func ExistingDefaultConfigPath() string {
	path := DefaultConfigPath()
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadAPIKeys(cfg *Config) {
	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			provider = strings.TrimPrefix(provider, EnvPrefix)
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	key := c.APIKeys[c.Provider]
	if key == "" && c.Provider == "gemini" {
		key = c.APIKeys["google"]
	}
	return key
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Optimization extracts the value object used by the core.
func (c *Config) Optimization() OptimizationConfig {
	return OptimizationConfig{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Language:    c.Language,
		Template:    c.Template,
	}
}

type ConfigOption func(*Config)

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 1 {
			maxTokens = 1
		}
		c.MaxTokens = maxTokens
	}
}

func SetLanguage(language string) ConfigOption {
	return func(c *Config) {
		c.Language = language
	}
}

func SetRequiredFields(fields ...string) ConfigOption {
	return func(c *Config) {
		c.RequiredFields = append([]string(nil), fields...)
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[c.Provider] = apiKey
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(retryDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = retryDelay
	}
}

func SetRequestsPerMinute(rpm int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerMinute = rpm
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
