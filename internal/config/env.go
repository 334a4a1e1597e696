package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// envReader parses typed variables and remembers every malformed one
type envReader struct {
	errs []error
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s value %q: %w", key, value, err))
}

func (r *envReader) Int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return intValue
}

func (r *envReader) Int64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	int64Value, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return int64Value
}

func (r *envReader) Bool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return boolValue
}

// Duration accepts Go durations ("10s") and bare integers as seconds
func (r *envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return duration
}

func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}
