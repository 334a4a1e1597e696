package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the relay service.
// It is built once at startup and never mutated afterwards.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	BingX   BingXConfig   `yaml:"bingx"`
	Relay   RelayConfig   `yaml:"relay"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	Version         string        `yaml:"version"`
}

// BingXConfig holds exchange API configuration
type BingXConfig struct {
	APIKey     string        `yaml:"api_key"`
	SecretKey  string        `yaml:"secret_key"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	RecvWindow int64         `yaml:"recv_window"`
}

// RelayConfig controls how exchange responses are relayed
type RelayConfig struct {
	// MaskUpstream5xx answers 200 when the exchange answers >= 500
	MaskUpstream5xx bool `yaml:"mask_upstream_5xx"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // json or console
	Output     string `yaml:"output"`      // stdout, stderr, or file path
	MaxSize    int    `yaml:"max_size"`    // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SandboxBaseURL is the BingX simulated trading endpoint
const SandboxBaseURL = "https://open-api-vst.bingx.com"

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20, // 1MB
			Version:         "1.0.0",
		},
		BingX: BingXConfig{
			BaseURL:    SandboxBaseURL,
			Timeout:    10 * time.Second,
			RecvWindow: 5000,
		},
		Relay: RelayConfig{
			MaskUpstream5xx: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration.
// Priority: environment > .env file > CONFIG_FILE (YAML) > defaults.
func Load() (*Config, error) {
	config := Default()

	// .env never overrides variables already present in the environment
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFile merges a YAML file over the current values
func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func overrideWithEnv(config *Config) error {
	env := &envReader{}

	config.Server.Port = env.Int("PORT", config.Server.Port)
	config.Server.Host = getEnv("SERVER_HOST", config.Server.Host)
	config.Server.ReadTimeout = env.Duration("SERVER_READ_TIMEOUT", config.Server.ReadTimeout)
	config.Server.WriteTimeout = env.Duration("SERVER_WRITE_TIMEOUT", config.Server.WriteTimeout)
	config.Server.IdleTimeout = env.Duration("SERVER_IDLE_TIMEOUT", config.Server.IdleTimeout)
	config.Server.ShutdownTimeout = env.Duration("SERVER_SHUTDOWN_TIMEOUT", config.Server.ShutdownTimeout)
	config.Server.MaxBodyBytes = env.Int64("MAX_BODY_BYTES", config.Server.MaxBodyBytes)
	config.Server.CORSOrigins = getEnvAsSlice("CORS_ORIGINS", config.Server.CORSOrigins)
	config.Server.Version = getEnv("VERSION", config.Server.Version)

	config.BingX.APIKey = getEnv("BINGX_API_KEY", config.BingX.APIKey)
	config.BingX.SecretKey = getEnv("BINGX_SECRET_KEY", config.BingX.SecretKey)
	config.BingX.BaseURL = getEnv("BINGX_BASE_URL", config.BingX.BaseURL)
	config.BingX.Timeout = env.Duration("BINGX_TIMEOUT", config.BingX.Timeout)
	config.BingX.RecvWindow = env.Int64("BINGX_RECV_WINDOW", config.BingX.RecvWindow)

	config.Relay.MaskUpstream5xx = env.Bool("MASK_UPSTREAM_5XX", config.Relay.MaskUpstream5xx)

	config.Logging.Level = strings.ToLower(getEnv("LOG_LEVEL", config.Logging.Level))
	config.Logging.Format = strings.ToLower(getEnv("LOG_FORMAT", config.Logging.Format))
	config.Logging.Output = getEnv("LOG_OUTPUT", config.Logging.Output)
	config.Logging.MaxSize = env.Int("LOG_MAX_SIZE", config.Logging.MaxSize)
	config.Logging.MaxBackups = env.Int("LOG_MAX_BACKUPS", config.Logging.MaxBackups)
	config.Logging.MaxAge = env.Int("LOG_MAX_AGE", config.Logging.MaxAge)

	config.Metrics.Enabled = env.Bool("METRICS_ENABLED", config.Metrics.Enabled)
	config.Metrics.Path = getEnv("METRICS_PATH", config.Metrics.Path)

	return env.Err()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BingX.APIKey == "" {
		return fmt.Errorf("BINGX_API_KEY is required")
	}
	if c.BingX.SecretKey == "" {
		return fmt.Errorf("BINGX_SECRET_KEY is required")
	}
	if !strings.HasPrefix(c.BingX.BaseURL, "http://") && !strings.HasPrefix(c.BingX.BaseURL, "https://") {
		return fmt.Errorf("invalid BingX base URL: %q", c.BingX.BaseURL)
	}
	if c.BingX.Timeout <= 0 {
		return fmt.Errorf("BingX timeout must be positive")
	}
	if c.BingX.RecvWindow <= 0 {
		return fmt.Errorf("recv window must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaskedAPIKey returns the API key with everything after the first
// four characters hidden, for log output
func (c *BingXConfig) MaskedAPIKey() string {
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return c.APIKey[:4] + "****"
}
