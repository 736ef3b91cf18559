package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	// Telegram
	TelegramBotToken string
	AllowedChatID    int64

	// Database
	DBDriver         string
	DBHost           string
	DBPort           int
	DBUsername       string
	DBPassword       string
	DBDatabase       string
	DBSSLCertificate string
	DBSSLVerify      bool
	DBTimeout        time.Duration
	SQLiteDBPath     string

	// Ledger
	ExportPath string
	Timezone   string

	// Logging
	LogLevel string
	LogDir   string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Scheduled budget digest, cron syntax; empty disables it
	DigestSchedule string

	// allowedChatIDRaw keeps the original value for validation messages
	allowedChatIDRaw string
}

func Load() *Config {
	chatID := getEnv("ALLOWED_CHAT_ID", "")
	cfg := &Config{
		TelegramBotToken: strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		allowedChatIDRaw: chatID,

		DBDriver:         getEnv("DB_DRIVER", "mysql"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnvInt("DB_PORT", 3306),
		DBUsername:       getEnv("DB_USERNAME", ""),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBDatabase:       getEnv("DB_DATABASE", ""),
		DBSSLCertificate: getEnv("DB_SSL_CERTIFICATE_PATH", ""),
		DBSSLVerify:      getEnvBool("DB_SSL_VERIFY", false),
		DBTimeout:        getEnvDuration("DB_TIMEOUT", 5*time.Second),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/spesebot.db"),

		ExportPath: getEnv("EXPORT_PATH", "expenses.csv"),
		Timezone:   getEnv("TIMEZONE", "Local"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDir:   getEnv("LOG_DIR", "logs"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spesebot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		DigestSchedule: getEnv("DIGEST_SCHEDULE", ""),
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64); err == nil {
		cfg.AllowedChatID = id
	}

	return cfg
}

// LogSettings reads only the logging keys, so the logger can be set up
// before the rest of the configuration is loaded.
func LogSettings() (level, dir string) {
	return getEnv("LOG_LEVEL", "info"), getEnv("LOG_DIR", "logs")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.TelegramBotToken == "" {
		errors = append(errors, "Telegram bot token is not set or is empty")
	}

	if c.AllowedChatID == 0 {
		if strings.TrimSpace(c.allowedChatIDRaw) == "" {
			errors = append(errors, "allowed chat ID is not set or is empty")
		} else {
			errors = append(errors, fmt.Sprintf("invalid allowed chat ID '%s': must be a non-zero integer", c.allowedChatIDRaw))
		}
	}

	switch c.DBDriver {
	case "mysql":
		if c.DBHost == "" {
			errors = append(errors, "database host cannot be empty when using mysql")
		}
		if c.DBUsername == "" {
			errors = append(errors, "database username cannot be empty when using mysql")
		}
		if c.DBDatabase == "" {
			errors = append(errors, "database name cannot be empty when using mysql")
		}
		if c.DBPort < 1 || c.DBPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid database port %d: must be between 1 and 65535", c.DBPort))
		}
		if c.DBSSLCertificate != "" {
			if _, err := os.Stat(c.DBSSLCertificate); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("SSL certificate file does not exist: %s", c.DBSSLCertificate))
			}
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [mysql sqlite]", c.DBDriver))
	}

	if c.DBTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid database timeout %v: must be at least 1 second", c.DBTimeout))
	}

	if strings.TrimSpace(c.ExportPath) == "" {
		errors = append(errors, "export path cannot be empty")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
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

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves Timezone; call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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
