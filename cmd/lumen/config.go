package main

import "os"

type Config struct {
	APIKey     string // Required: application API key for the identity service
	BackendURL string // Required: base URL of the identity service

	DatabaseFile  string // Optional: path to the session database (default: ./lumen.db)
	SessionSecret string // Required: key material for session encryption at rest
	SessionSlot   string // Optional: named session slot (default: "default")
	LogLevel      string // Log level (debug, info, warn, error) (default: warn)
	LogFormat     string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		APIKey:        os.Getenv("LUMEN_API_KEY"),
		BackendURL:    os.Getenv("LUMEN_BACKEND_URL"),
		DatabaseFile:  getEnvOrDefault("LUMEN_SESSION_DB", "lumen.db"),
		SessionSecret: os.Getenv("LUMEN_SESSION_SECRET"),
		SessionSlot:   getEnvOrDefault("LUMEN_SESSION_SLOT", ""),
		LogLevel:      getEnvOrDefault("LUMEN_LOG_LEVEL", "warn"),
		LogFormat:     getEnvOrDefault("LUMEN_LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
