package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	APIKey      string
	Port        string

	// SeedUsers inserts the demo login when the users table is empty.
	SeedUsers bool

	// Development switches to a human-readable console logger.
	Development bool
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pagekit?sslmode=disable"),
		APIKey:      getEnv("API_KEY", ""),
		Port:        getEnv("PORT", "3000"),
		SeedUsers:   getEnvBool("SEED_USERS", true),
		Development: getEnvBool("DEVELOPMENT", false),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}
