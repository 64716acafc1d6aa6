package config

import "os"

// Config holds process configuration, read from the environment.
type Config struct {
	// DatabaseURL is a Postgres connection string. Empty disables the
	// persistence layer.
	DatabaseURL string
	// ListenAddr is the HTTP API bind address.
	ListenAddr string
}

// FromEnv reads configuration from environment variables, applying
// defaults where unset.
func FromEnv() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
