package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer      string // Issuer claim for tokens (default: crewdeck)
	JWTSecret   string // HMAC signing secret; a dev default is used when unset
	AllowSeed   bool   // Whether the seed-admin endpoint is enabled
	FrontendURL string // Base URL for invite links (default: http://localhost:5173)

	DatabaseFile        string        // Path to SQLite database file (default: ./crewdeck.db)
	PepperFile          string        // Path to pepper file for password hashing (default: ./pepper)
	InviteTTL           time.Duration // Invite validity window (default: 24h)
	TokenTTL            time.Duration // Access token lifetime (default: 24h)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// DevJWTSecret is the fallback signing secret for local development.
// Startup logs a loud warning whenever it is in use.
const DevJWTSecret = "dev-insecure-secret-change-me"

func LoadConfig() Config {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:              getEnvOrDefault("AUTH_ISSUER", "crewdeck"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AllowSeed:           getEnvBoolOrDefault("ALLOW_SEED", false),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "crewdeck.db"),
		PepperFile:          getEnvOrDefault("PEPPER_FILE", "pepper"),
		InviteTTL:           getEnvDurationOrDefault("INVITE_TTL", 24*time.Hour),
		TokenTTL:            getEnvDurationOrDefault("TOKEN_TTL", 24*time.Hour),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DevJWTSecret
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
