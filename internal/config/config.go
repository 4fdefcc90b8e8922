package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// #region types

// Config holds the runtime configuration for the herdsense binaries.
type Config struct {
	StoreBackend string // "memory", "sqlite" or "redis"
	DBPath       string
	RedisAddr    string
	RedisDB      int
	LogLevel     string
	LogFormat    string // "json" or "console"
	MetricsAddr  string // prometheus listen address, empty disables it
}

// #endregion types

// #region load

// Load reads configuration from a .env file (if present) and the
// process environment, falling back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or default values")
	}

	return &Config{
		StoreBackend: strings.ToLower(getEnv("HERDSENSE_STORE", "sqlite")),
		DBPath:       getEnv("HERDSENSE_DB", "herdsense.db"),
		RedisAddr:    getEnv("HERDSENSE_REDIS_ADDR", "localhost:6379"),
		RedisDB:      0,
		LogLevel:     getEnv("HERDSENSE_LOG_LEVEL", "info"),
		LogFormat:    getEnv("HERDSENSE_LOG_FORMAT", "console"),
		MetricsAddr:  getEnv("HERDSENSE_METRICS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// #endregion load
