package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	// ScoresURL is the scoring service endpoint; leaderboards and score
	// submission are disabled when empty.
	ScoresURL      string
	ChatAPIURL     string
	ChatPoll       time.Duration
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	// JWTSecret, when set, is the HS256 key bearer tokens must be signed with
	// before their subject is trusted as a player key.
	JWTSecret string
}

// Load reads a .env file if there is one, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, reading from environment")
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ScoresURL:      os.Getenv("SCORES_URL"),
		ChatAPIURL:     os.Getenv("CHAT_API_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ChatPoll:       time.Duration(getEnvInt("CHAT_POLL_SECONDS", 5)) * time.Second,
		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt falls back on missing, malformed, or non-positive values.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
