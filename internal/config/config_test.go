package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	val := "test_value"
	os.Setenv(key, val)
	defer os.Unsetenv(key)

	if got := getEnvString(key, "default"); got != val {
		t.Errorf("getEnvString() = %q, want %q", got, val)
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Skipping test because user home dir cannot be found")
	}

	got := getDefaultPath("cache.db")
	want := filepath.Join(home, ".config", "spending-tui", "cache.db")
	if got != want {
		t.Errorf("getDefaultPath() = %q, want %q", got, want)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"HTTP", "http://localhost:8080", false},
		{"HTTPS", "https://finance.example.com", false},
		{"NoScheme", "localhost:8080", true},
		{"FTP", "ftp://example.com", true},
		{"NoHost", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBaseURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBaseURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestParsePageMetadata(t *testing.T) {
	content := `
<html><head>
  <meta name="_csrf" content="token-123"/>
  <meta name="_csrf_header" content="X-CSRF-TOKEN"/>
</head></html>
`
	meta := ParsePageMetadata(content)
	if meta == nil {
		t.Fatal("ParsePageMetadata returned nil")
	}
	if meta.CSRFToken != "token-123" {
		t.Errorf("CSRFToken = %q, want %q", meta.CSRFToken, "token-123")
	}
	if meta.CSRFHeader != "X-CSRF-TOKEN" {
		t.Errorf("CSRFHeader = %q, want %q", meta.CSRFHeader, "X-CSRF-TOKEN")
	}
}

func TestParsePageMetadata_ContentFirst(t *testing.T) {
	content := `<meta content='abc' name='_csrf'><meta content='X-XSRF' name='_csrf_header'>`
	meta := ParsePageMetadata(content)
	if meta == nil {
		t.Fatal("ParsePageMetadata returned nil")
	}
	if meta.CSRFToken != "abc" || meta.CSRFHeader != "X-XSRF" {
		t.Errorf("got %+v", meta)
	}
}

func TestParsePageMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty", ""},
		{"MissingToken", `<meta name="_csrf_header" content="X-CSRF-TOKEN">`},
		{"MissingHeader", `<meta name="_csrf" content="token">`},
		{"Garbage", "some random text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePageMetadata(tt.content); got != nil {
				t.Errorf("ParsePageMetadata() should return nil for %s", tt.name)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	os.Setenv("API_BASE_URL", "https://finance.example.com/")
	os.Setenv("SESSION_PATH", filepath.Join(tmpDir, "session.json"))
	os.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "db", "cache.db"))
	defer os.Unsetenv("API_BASE_URL")
	defer os.Unsetenv("SESSION_PATH")
	defer os.Unsetenv("DATABASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.APIBaseURL != "https://finance.example.com" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.NotificationPollInterval != defaultNotificationPollInterval {
		t.Errorf("NotificationPollInterval = %v, want %v", cfg.NotificationPollInterval, defaultNotificationPollInterval)
	}
	if cfg.LoginURL() != "https://finance.example.com/user/login" {
		t.Errorf("LoginURL() = %q", cfg.LoginURL())
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "db")); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	tmpDir := t.TempDir()
	os.Setenv("API_BASE_URL", "not a url")
	os.Setenv("SESSION_PATH", filepath.Join(tmpDir, "session.json"))
	os.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "cache.db"))
	defer os.Unsetenv("API_BASE_URL")
	defer os.Unsetenv("SESSION_PATH")
	defer os.Unsetenv("DATABASE_PATH")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for an invalid base URL")
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	content := "CSRF_HEADER=X-CSRF-TOKEN\nCSRF_TOKEN=env-token\nNOTIFICATION_POLL_INTERVAL=15"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Change working directory to tmpDir so Load finds .env
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(tmpDir)

	os.Unsetenv("CSRF_HEADER")
	os.Unsetenv("CSRF_TOKEN")
	os.Unsetenv("NOTIFICATION_POLL_INTERVAL")
	os.Setenv("SESSION_PATH", filepath.Join(tmpDir, "session.json"))
	os.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "cache.db"))
	defer os.Unsetenv("SESSION_PATH")
	defer os.Unsetenv("DATABASE_PATH")
	defer os.Unsetenv("CSRF_HEADER")
	defer os.Unsetenv("CSRF_TOKEN")
	defer os.Unsetenv("NOTIFICATION_POLL_INTERVAL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CSRFToken != "env-token" {
		t.Errorf("CSRFToken = %q, want env-token", cfg.CSRFToken)
	}
	if cfg.NotificationPollInterval != 15*time.Second {
		t.Errorf("NotificationPollInterval = %v, want 15s", cfg.NotificationPollInterval)
	}
}
