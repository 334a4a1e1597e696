package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv isolates a test from any .env in the working directory
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CONFIG_FILE", "")
	for _, key := range []string{
		"PORT", "SERVER_HOST", "BINGX_BASE_URL", "BINGX_TIMEOUT", "BINGX_RECV_WINDOW",
		"MASK_UPSTREAM_5XX", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("BINGX_API_KEY", "test-key")
	t.Setenv("BINGX_SECRET_KEY", "test-secret")
}

func TestLoad(t *testing.T) {
	t.Run("uses default values when env vars not set", func(t *testing.T) {
		setRequiredEnv(t)

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5000, config.Server.Port)
		assert.Equal(t, "0.0.0.0:5000", config.Server.Addr())
		assert.Equal(t, int64(1<<20), config.Server.MaxBodyBytes)
		assert.Equal(t, SandboxBaseURL, config.BingX.BaseURL)
		assert.Equal(t, 10*time.Second, config.BingX.Timeout)
		assert.Equal(t, int64(5000), config.BingX.RecvWindow)
		assert.True(t, config.Relay.MaskUpstream5xx)
		assert.Equal(t, "info", config.Logging.Level)
		assert.Equal(t, "json", config.Logging.Format)
		assert.True(t, config.Metrics.Enabled)
		assert.Empty(t, config.Server.CORSOrigins)
	})

	t.Run("loads config from environment variables", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "8081")
		t.Setenv("BINGX_BASE_URL", "https://open-api.bingx.com")
		t.Setenv("BINGX_TIMEOUT", "3s")
		t.Setenv("BINGX_RECV_WINDOW", "7000")
		t.Setenv("MASK_UPSTREAM_5XX", "false")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("LOG_FORMAT", "console")
		t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://example.com")
		t.Setenv("SERVER_READ_TIMEOUT", "60")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8081, config.Server.Port)
		assert.Equal(t, "test-key", config.BingX.APIKey)
		assert.Equal(t, "test-secret", config.BingX.SecretKey)
		assert.Equal(t, "https://open-api.bingx.com", config.BingX.BaseURL)
		assert.Equal(t, 3*time.Second, config.BingX.Timeout)
		assert.Equal(t, int64(7000), config.BingX.RecvWindow)
		assert.False(t, config.Relay.MaskUpstream5xx)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "console", config.Logging.Format)
		assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, config.Server.CORSOrigins)
		assert.Equal(t, 60*time.Second, config.Server.ReadTimeout)
	})

	t.Run("returns error when credentials are missing", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("BINGX_API_KEY", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BINGX_API_KEY")

		t.Setenv("BINGX_API_KEY", "test-key")
		t.Setenv("BINGX_SECRET_KEY", "")

		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BINGX_SECRET_KEY")
	})

	t.Run("reports malformed values", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "not-a-port")
		t.Setenv("MASK_UPSTREAM_5XX", "maybe")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PORT")
		assert.Contains(t, err.Error(), "MASK_UPSTREAM_5XX")
	})

	t.Run("validates port range", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "70000")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("reads .env without overriding the environment", func(t *testing.T) {
		setRequiredEnv(t)
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("BINGX_BASE_URL=https://dotenv.example\nPORT=9000\n"), 0o600))
		t.Setenv("ENV_FILE", envFile)
		t.Setenv("PORT", "7000")
		t.Setenv("BINGX_BASE_URL", "")
		os.Unsetenv("BINGX_BASE_URL")
		t.Cleanup(func() { os.Unsetenv("BINGX_BASE_URL") })

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://dotenv.example", config.BingX.BaseURL)
		assert.Equal(t, 7000, config.Server.Port)
	})

	t.Run("merges YAML file below environment", func(t *testing.T) {
		setRequiredEnv(t)
		path := filepath.Join(t.TempDir(), "relay.yaml")
		yamlConfig := `
server:
  port: 6000
  cors_origins: ["https://tradingview.com"]
bingx:
  base_url: https://open-api.bingx.com
  timeout: 4s
relay:
  mask_upstream_5xx: false
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("LOG_LEVEL", "error")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 6000, config.Server.Port)
		assert.Equal(t, []string{"https://tradingview.com"}, config.Server.CORSOrigins)
		assert.Equal(t, "https://open-api.bingx.com", config.BingX.BaseURL)
		assert.Equal(t, 4*time.Second, config.BingX.Timeout)
		assert.False(t, config.Relay.MaskUpstream5xx)
		assert.Equal(t, "error", config.Logging.Level)
		// untouched keys keep their defaults
		assert.Equal(t, int64(5000), config.BingX.RecvWindow)
	})

	t.Run("fails on unreadable config file", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		config := Default()
		config.BingX.APIKey = "key"
		config.BingX.SecretKey = "secret"
		return config
	}

	t.Run("accepts valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid base url", func(c *Config) { c.BingX.BaseURL = "open-api.bingx.com" }, "base URL"},
		{"zero timeout", func(c *Config) { c.BingX.Timeout = 0 }, "timeout"},
		{"zero recv window", func(c *Config) { c.BingX.RecvWindow = 0 }, "recv window"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "port"},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "body"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMaskedAPIKey(t *testing.T) {
	bingx := BingXConfig{APIKey: "abcd1234efgh"}
	assert.Equal(t, "abcd****", bingx.MaskedAPIKey())

	short := BingXConfig{APIKey: "abc"}
	assert.Equal(t, "****", short.MaskedAPIKey())
}

func TestServerAddr(t *testing.T) {
	server := ServerConfig{Host: "0.0.0.0", Port: 5000}
	assert.Equal(t, "0.0.0.0:5000", server.Addr())
}
