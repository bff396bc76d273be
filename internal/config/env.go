// internal/config/env.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects everything the battle service reads from the
// environment. Godotenv autoload in cmd/server fills the env from .env
// during development.
type Config struct {
	Addr string

	DatabaseURL string

	RedisAddr  string
	RedisDB    int
	RedisQueue string

	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	BattleDuration time.Duration
}

// Load reads the environment with sane defaults. Empty DatabaseURL or
// RedisAddr disable the corresponding integration.
func Load() Config {
	return Config{
		Addr:           ":" + GetEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisDB:        GetEnvInt("REDIS_DB", 0),
		RedisQueue:     GetEnv("BATTLE_HISTORY_QUEUE", "battle_results"),
		AIBaseURL:      GetEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:       os.Getenv("AI_API_KEY"),
		AIModel:        GetEnv("AI_MODEL", "gpt-4o-mini"),
		BattleDuration: GetEnvDuration("BATTLE_DURATION", 10*time.Minute),
	}
}

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt parses an environment variable as integer, else a default.
func GetEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// GetEnvDuration parses an environment variable as a duration, else a
// default.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
