package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultUpstreamBaseURL = "http://localhost:8112/api/v1/employee"

type EnvConfig struct {
	// server config
	APP_PORT           int
	SHUTDOWN_TIMEOUT   time.Duration
	CORS_ALLOW_ORIGINS []string
	// upstream config
	UPSTREAM_BASE_URL   string
	UPSTREAM_TIMEOUT    time.Duration
	UPSTREAM_RATE_LIMIT float64
	UPSTREAM_RATE_BURST int
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
}

// LoadEnvConfig reads envFiles (".env" when none given) into the process
// environment and builds the config from it. Missing env files are ignored.
func LoadEnvConfig(envFiles ...string) (*EnvConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return &EnvConfig{
		APP_PORT:            getEnvInt("APP_PORT", 8080),
		SHUTDOWN_TIMEOUT:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORS_ALLOW_ORIGINS:  getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
		UPSTREAM_BASE_URL:   strings.TrimRight(getEnvString("UPSTREAM_BASE_URL", defaultUpstreamBaseURL), "/"),
		UPSTREAM_TIMEOUT:    getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UPSTREAM_RATE_LIMIT: getEnvFloat("UPSTREAM_RATE_LIMIT", 0),
		UPSTREAM_RATE_BURST: getEnvInt("UPSTREAM_RATE_BURST", 1),
		LOG_FILE_PATH:       getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:           getEnvString("LOG_LEVEL", "info"),
	}, nil
}

// Validate reports the first setting the server cannot start with.
func (c *EnvConfig) Validate() error {
	if c.APP_PORT <= 0 || c.APP_PORT > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.APP_PORT)
	}
	u, err := url.Parse(c.UPSTREAM_BASE_URL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_BASE_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an absolute URL, got %q", c.UPSTREAM_BASE_URL)
	}
	if c.UPSTREAM_TIMEOUT < 0 {
		return fmt.Errorf("invalid UPSTREAM_TIMEOUT %s", c.UPSTREAM_TIMEOUT)
	}
	if c.UPSTREAM_RATE_LIMIT < 0 {
		return fmt.Errorf("invalid UPSTREAM_RATE_LIMIT %v", c.UPSTREAM_RATE_LIMIT)
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
