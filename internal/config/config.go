// Package config resolves runtime configuration from environment variables,
// with an optional YAML overlay for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the proxy's runtime configuration.
type Config struct {
	BackendURL           string `yaml:"backend_url"`
	BackendTimeoutSecs   int    `yaml:"backend_timeout_secs"`
	EnableCircuitBreaker bool   `yaml:"enable_circuit_breaker"`
	HostPort             int    `yaml:"host_port"`
	Verbose              bool   `yaml:"verbose"`
	LogFile              string `yaml:"log_file"`
}

// BackendTimeout is BackendTimeoutSecs as a time.Duration.
func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSecs) * time.Second
}

// Default returns the configuration's documented environment-variable
// defaults.
func Default() Config {
	return Config{
		BackendURL:           "http://127.0.0.1:8000/v1/chat/completions",
		BackendTimeoutSecs:   600,
		EnableCircuitBreaker: false,
		HostPort:             8080,
	}
}

// FromEnv layers environment variables over the defaults. Every variable is
// optional; an absent or unparseable numeric/bool value keeps the default.
func FromEnv() Config {
	c := Default()
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BackendTimeoutSecs = n
		}
	}
	if v := os.Getenv("ENABLE_CIRCUIT_BREAKER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EnableCircuitBreaker = b
		}
	}
	if v := os.Getenv("HOST_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HostPort = n
		}
	}
	return c
}

// LoadYAMLOverlay reads path, if non-empty, and overlays any fields it sets
// onto c. A missing file is not an error; a malformed one is.
func LoadYAMLOverlay(c Config, path string) (Config, error) {
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("reading config overlay %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config overlay %s: %w", path, err)
	}
	return c, nil
}
