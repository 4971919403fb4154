package app

import (
	"os"
	"strconv"
	"strings"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	HTTPAddr          string
	DBDriver          string // "memory", "sqlite" or "postgres"
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifeMins int

	SessionStartRateLimitPerMin int

	GeminiAPIKey string
	GeminiModel  string
}

func LoadConfig() Config {
	return Config{
		AppEnv:                      envOrDefault("APP_ENV", "development"),
		HTTPAddr:                    envOrDefault("HTTP_ADDR", ":8080"),
		DBDriver:                    envOrDefault("DB_DRIVER", "memory"),
		DBDSN:                       os.Getenv("DB_DSN"),
		DBMaxOpenConns:              intOrDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:              intOrDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMins:           intOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		SessionStartRateLimitPerMin: intOrDefault("SESSION_START_RATE_LIMIT_PER_MINUTE", 60),
		GeminiAPIKey:                os.Getenv("GEMINI_API_KEY"),
		GeminiModel:                 os.Getenv("GEMINI_MODEL"),
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intOrDefault(key string, fallback int) int {
	n, _ := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if n <= 0 {
		return fallback
	}
	return n
}
