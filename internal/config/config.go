package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string

	// Reporting
	RecentWindowDays    int
	CategoryRecentLimit int

	// Export
	ExportDir string

	// AMQP; empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (worker)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	EventCacheSize            int
	EventCacheTTL             time.Duration
	EventCacheCleanupInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		DataBackend:  getEnv("DATA_BACKEND", "json"),
		DataFile:     getEnv("DATA_FILE", "./data/expenses.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),

		RecentWindowDays:    getEnvInt("RECENT_WINDOW_DAYS", 7),
		CategoryRecentLimit: getEnvInt("CATEGORY_RECENT_LIMIT", 5),

		ExportDir: getEnv("EXPORT_DIR", "."),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Activity"),

		EventCacheSize:            getEnvInt("EVENT_CACHE_SIZE", 1024),
		EventCacheTTL:             getEnvDuration("EVENT_CACHE_TTL", time.Hour),
		EventCacheCleanupInterval: getEnvDuration("EVENT_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"json", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate JSON file configuration if backend is json
	if c.DataBackend == "json" && c.DataFile == "" {
		errors = append(errors, "data file path cannot be empty when using json backend")
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
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

	// Validate reporting windows
	if c.RecentWindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid recent window %d: must be at least 1 day", c.RecentWindowDays))
	} else if c.RecentWindowDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid recent window %d: must be at most 365 days", c.RecentWindowDays))
	}
	if c.CategoryRecentLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid category recent limit %d: must be at least 1", c.CategoryRecentLimit))
	} else if c.CategoryRecentLimit > 100 {
		errors = append(errors, fmt.Sprintf("invalid category recent limit %d: must be at most 100", c.CategoryRecentLimit))
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	// Validate AMQP URL if provided
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

	// Validate worker configuration
	if c.EventCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid event cache size %d: must be at least 1", c.EventCacheSize))
	} else if c.EventCacheSize > 100000 {
		errors = append(errors, fmt.Sprintf("invalid event cache size %d: must be at most 100000", c.EventCacheSize))
	}

	if c.EventCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid event cache TTL %v: must be at least 1 second", c.EventCacheTTL))
	} else if c.EventCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid event cache TTL %v: must be at most 24 hours", c.EventCacheTTL))
	}

	if c.EventCacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid event cache cleanup interval %v: must be at least 1 second", c.EventCacheCleanupInterval))
	} else if c.EventCacheCleanupInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid event cache cleanup interval %v: must be at most 24 hours", c.EventCacheCleanupInterval))
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
