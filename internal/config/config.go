package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MailgunConfig holds the notification transport settings.
type MailgunConfig struct {
	Domain    string
	APIKey    string
	APIBase   string
	FromEmail string
	FromName  string
}

// TokenConfig holds signing token settings.
type TokenConfig struct {
	// TTLDays is the token validity window in days. Signing links expire
	// after this many days regardless of use.
	TTLDays int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	// BaseURL is the externally reachable address signing links are built
	// against, e.g. https://deeds.example.com.
	BaseURL  string
	Port     string
	Database DatabaseConfig
	Mailgun  MailgunConfig
	Token    TokenConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mailgun: MailgunConfig{
			Domain:    getEnv("MAILGUN_DOMAIN", ""),
			APIKey:    getEnv("MAILGUN_API_KEY", ""),
			APIBase:   getEnv("MAILGUN_API_BASE", ""),
			FromEmail: getEnv("EMAILS_FROM_EMAIL", ""),
			FromName:  getEnv("EMAILS_FROM_NAME", "Mortgage Deed System"),
		},
		Token: TokenConfig{
			TTLDays: getEnvInt("SIGNING_TOKEN_TTL_DAYS", 7),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
