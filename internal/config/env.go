package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
)

// loadEnvFile loads <baseDir>/.env if present. Existing process environment
// variables are not overwritten. A missing file is not an error.
func loadEnvFile(baseDir string) error {
	envPath := filepath.Join(baseDir, ".env")
	if _, err := os.Stat(envPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return ferrors.ConfigError("load .env").WithCause(err).WithContext("path", envPath).Build()
	}
	slog.Debug("Loaded environment variables", slog.String("path", envPath))
	return nil
}
