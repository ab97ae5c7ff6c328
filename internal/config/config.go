package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port           string
	RequestTimeout time.Duration

	// Data sources
	DataBackend     string
	DataDir         string
	ContractsSource string
	UsersSource     string
	DataCacheMode   string
	DataCacheSize   int
	WatchDataFiles  bool
	WatchDebounce   time.Duration

	// Google Sheets
	GoogleSpreadsheetID string

	// Authentication
	AdminNames []string

	// Sessions
	SessionBackend      string
	SQLiteDBPath        string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool

	// AMQP, empty URL disables reload messages
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validDataBackends    = []string{"file", "sheets"}
	validCacheModes      = []string{"process", "modtime"}
	validSessionBackends = []string{"memory", "sqlite"}
	validLogFormats      = []string{"text", "json", "tint"}
)

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 7*time.Second),

		DataBackend:     getEnv("DATA_BACKEND", "file"),
		DataDir:         getEnv("DATA_DIR", "."),
		ContractsSource: getEnv("CONTRACTS_SOURCE", "clientes.xlsx"),
		UsersSource:     getEnv("USERS_SOURCE", "usuarios_actualizado.xlsx"),
		DataCacheMode:   getEnv("DATA_CACHE_MODE", "process"),
		DataCacheSize:   getEnvInt("DATA_CACHE_SIZE", 16),
		WatchDataFiles:  getEnvBool("WATCH_DATA_FILES", false),
		WatchDebounce:   getEnvDuration("WATCH_DEBOUNCE", 500*time.Millisecond),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AdminNames: getEnvList("ADMIN_NAMES", []string{"Ivan Manrique", "SUPER ADMIN"}),

		SessionBackend:      getEnv("SESSION_BACKEND", "memory"),
		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/ccpp.db"),
		SessionTTL:          getEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "ccpp_session"),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ccpp"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "data_reload"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 100ms", c.RequestTimeout))
	}

	if !slices.Contains(validDataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validDataBackends))
	}
	if strings.TrimSpace(c.ContractsSource) == "" {
		errors = append(errors, "contracts source cannot be empty")
	}
	if strings.TrimSpace(c.UsersSource) == "" {
		errors = append(errors, "users source cannot be empty")
	}

	if c.DataBackend == "file" {
		if fi, err := os.Stat(c.DataDir); err != nil || !fi.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory '%s' does not exist", c.DataDir))
		}
	}
	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.WatchDataFiles {
			errors = append(errors, "WATCH_DATA_FILES requires the file backend")
		}
	}

	if !slices.Contains(validCacheModes, strings.ToLower(c.DataCacheMode)) {
		errors = append(errors, fmt.Sprintf("invalid data cache mode '%s': must be one of %v", c.DataCacheMode, validCacheModes))
	}
	if c.DataCacheSize < 1 || c.DataCacheSize > 1024 {
		errors = append(errors, fmt.Sprintf("invalid data cache size %d: must be between 1 and 1024", c.DataCacheSize))
	}

	if len(c.AdminNames) == 0 {
		errors = append(errors, "at least one admin name is required")
	}

	if !slices.Contains(validSessionBackends, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validSessionBackends))
	}
	if c.SessionBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite sessions")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}
	if c.SessionTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid session ttl %v: must not be negative", c.SessionTTL))
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		errors = append(errors, "session cookie name cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether reload messages are configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
