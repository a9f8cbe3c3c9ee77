package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"rewards/internal/log"
)

// Data sources accepted by DATA_SOURCE.
const (
	SourceFile   = "file"
	SourceMemory = "memory"
	SourceHTTP   = "http"
)

type Config struct {
	// HTTP Server
	Port string

	// Transactions
	DataSource       string
	TransactionsFile string
	TransactionsURL  string

	// Remote source retries and the circuit breaker guarding every source.
	// BreakerFailures of 0 disables the breaker.
	SourceRetries   int
	BreakerFailures int
	BreakerTimeout  time.Duration

	// Calendar used to resolve transaction dates into months
	Timezone string

	// Snapshot cache
	CacheTTL  time.Duration
	CacheSize int

	LogLevel string

	// Upper bound for one aggregation request
	AggregationTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataSource:       getEnv("DATA_SOURCE", SourceFile),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "./data/transactions.json"),
		TransactionsURL:  getEnv("TRANSACTIONS_URL", ""),

		SourceRetries:   getEnvInt("SOURCE_RETRIES", 2),
		BreakerFailures: getEnvInt("SOURCE_BREAKER_FAILURES", 5),
		BreakerTimeout:  getEnvDuration("SOURCE_BREAKER_TIMEOUT", 30*time.Second),

		Timezone: getEnv("TIMEZONE", "Local"),

		CacheTTL:  getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheSize: getEnvInt("CACHE_SIZE", 16),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AggregationTimeout: getEnvDuration("AGGREGATION_TIMEOUT", 5*time.Second),
	}

	return cfg
}

// Location resolves Timezone. Call Validate first.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validSources := []string{SourceFile, SourceMemory, SourceHTTP}
	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	if c.DataSource == SourceFile && strings.TrimSpace(c.TransactionsFile) == "" {
		errors = append(errors, "transactions file cannot be empty when using file source")
	}

	if c.DataSource == SourceHTTP {
		if u, err := url.Parse(c.TransactionsURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid transactions URL '%s': must be an absolute http(s) URL", c.TransactionsURL))
		}
	}

	if c.SourceRetries < 0 || c.SourceRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid source retries %d: must be between 0 and 10", c.SourceRetries))
	}

	if c.BreakerFailures < 0 {
		errors = append(errors, fmt.Sprintf("invalid breaker failures %d: must not be negative", c.BreakerFailures))
	} else if c.BreakerFailures > 0 && c.BreakerTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid breaker timeout %v: must be at least 1s", c.BreakerTimeout))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	} else if c.CacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at most 24 hours", c.CacheTTL))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	} else if c.CacheSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at most 1000", c.CacheSize))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if c.AggregationTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid aggregation timeout %v: must be at least 100ms", c.AggregationTimeout))
	} else if c.AggregationTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid aggregation timeout %v: must be at most 5 minutes", c.AggregationTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
