// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL               string
	SessionPath              string
	DatabasePath             string
	LogPath                  string
	LogLevel                 string
	CSRFHeader               string
	CSRFToken                string
	MetadataPage             string
	LoginPath                string
	NotificationPollInterval time.Duration
}

// Default values
const (
	defaultAPIBaseURL               = "http://localhost:8080"
	defaultMetadataPage             = "/analysis"
	defaultLoginPath                = "/user/login"
	defaultNotificationPollInterval = 60 * time.Second
	appDirName                      = "spending-tui"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		APIBaseURL:               strings.TrimRight(getEnvString("API_BASE_URL", defaultAPIBaseURL), "/"),
		SessionPath:              getEnvString("SESSION_PATH", getDefaultPath("session.json")),
		DatabasePath:             getEnvString("DATABASE_PATH", getDefaultPath("cache.db")),
		LogPath:                  getEnvString("LOG_PATH", getDefaultPath("tui.log")),
		LogLevel:                 getEnvString("LOG_LEVEL", "info"),
		CSRFHeader:               getEnvString("CSRF_HEADER", ""),
		CSRFToken:                getEnvString("CSRF_TOKEN", ""),
		MetadataPage:             getEnvString("METADATA_PAGE", defaultMetadataPage),
		LoginPath:                getEnvString("LOGIN_PATH", defaultLoginPath),
		NotificationPollInterval: getEnvDuration("NOTIFICATION_POLL_INTERVAL", defaultNotificationPollInterval),
	}

	if err := validateBaseURL(cfg.APIBaseURL); err != nil {
		return nil, err
	}

	// Ensure session directory exists
	if err := ensureDir(filepath.Dir(cfg.SessionPath)); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoginURL returns the absolute login page URL shown on unauthorized responses.
func (c *Config) LoginURL() string {
	return c.APIBaseURL + c.LoginPath
}

// validateBaseURL checks that the API base URL is an absolute http(s) URL.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("API_BASE_URL is missing a host: %q", raw)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, "."+appDirName, ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultPath returns name inside the application config directory.
func getDefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appDirName, name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
