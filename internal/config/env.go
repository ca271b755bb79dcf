package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads environment variables from .env.local and .env.
// godotenv never overwrites variables that are already set, so loading the
// local file first makes it win over .env for overlapping keys, and the
// process environment always wins over both.
func loadEnvFiles() {
	for _, envPath := range []string{".env.local", ".env"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
	}
}
