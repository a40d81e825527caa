package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is loaded once at startup
// and passed down explicitly; nothing reads the environment after this.
type Config struct {
	// Server
	Port  string
	Env   string
	Debug bool

	// Database
	DBPath string

	// Auth
	JWTSecret     string
	TokenLifetime time.Duration

	// Attachment storage
	StorageDir        string
	StorageSigningKey string
	SignedURLTTL      time.Duration
}

// Load reads configuration from environment variables, with an optional
// .env file for development. Missing required values are collected into a
// single error so operators see every problem at once.
func Load() (*Config, error) {
	// Don't fail if the .env file is absent, plain env vars are fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		Debug:             getEnv("DEBUG", "") == "true",
		DBPath:            getEnv("DB_PATH", "tradesmart.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		StorageDir:        getEnv("STORAGE_DIR", "attachments"),
		StorageSigningKey: getEnv("STORAGE_SIGNING_KEY", ""),
	}

	var err error
	cfg.TokenLifetime, err = getEnvAsDuration("TOKEN_LIFETIME", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_LIFETIME: %w", err)
	}

	cfg.SignedURLTTL, err = getEnvAsDuration("SIGNED_URL_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNED_URL_TTL: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "tradesmart-dev-secret"
	}
	if cfg.StorageSigningKey == "" {
		cfg.StorageSigningKey = cfg.JWTSecret
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}
