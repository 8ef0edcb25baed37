// Package config centralizes environment configuration for the API
// server and the simulation runner.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env  string // "local", "production"
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	LogDir      string
	MetricsPort string
}

// Load reads the environment and applies defaults. Only the JWT secret
// is mandatory outside local runs.
func Load() (*Config, error) {
	cfg := &Config{
		Env:         getEnv("ENV", "local"),
		Port:        getEnv("PORT", "8080"),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		LogDir:      getEnv("LOG_DIR", "logs"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = db

	if cfg.JWTSecret == "" {
		if cfg.Env != "local" {
			return nil, fmt.Errorf("JWT_SECRET is required when ENV=%s", cfg.Env)
		}
		cfg.JWTSecret = "dicebot-local-secret"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
