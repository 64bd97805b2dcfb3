package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/omrozmn/x-ear-billing/internal/logger"
)

// Config is the process configuration, read from the environment.
type Config struct {
	// HTTP server
	Port           string
	RequestTimeout time.Duration

	// Postgres
	DatabaseURL string

	// Kafka; empty brokers disables event publishing
	KafkaBrokers   string
	SubmittedTopic string

	// Invoice numbering
	InvoiceNumberPrefix string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	timeoutMS, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_MS", "5000"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_MS must be an integer: %w", err)
	}

	config := &Config{
		Port:                getEnv("PORT", "8080"),
		RequestTimeout:      time.Duration(timeoutMS) * time.Millisecond,
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", ""),
		SubmittedTopic:      getEnv("KAFKA_SUBMITTED_TOPIC", "invoice.submitted"),
		InvoiceNumberPrefix: getEnv("INVOICE_NUMBER_PREFIX", "XER"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if len(c.InvoiceNumberPrefix) != 3 {
		return fmt.Errorf("INVOICE_NUMBER_PREFIX must be exactly 3 characters")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be positive")
	}
	return nil
}

// RequireDatabase fails when DATABASE_URL is unset; the serve command needs
// it, the offline CLI commands do not.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
