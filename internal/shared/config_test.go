package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./narrate.db" {
			t.Errorf("expected database path ./narrate.db, got %s", config.Database.Path)
		}

		if config.API.PollInterval.Duration != 3*time.Second {
			t.Errorf("expected poll interval 3s, got %s", config.API.PollInterval)
		}

		if config.API.RequestTimeout.Duration != 30*time.Second {
			t.Errorf("expected request timeout 30s, got %s", config.API.RequestTimeout)
		}

		if config.Uploads.MaxBytes != 2*1024*1024 {
			t.Errorf("expected 2MB upload limit, got %d", config.Uploads.MaxBytes)
		}

		if len(config.Uploads.AllowedTypes) != 3 {
			t.Errorf("expected 3 allowed upload types, got %d", len(config.Uploads.AllowedTypes))
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://api.example.com"
poll_interval = "500ms"

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://api.example.com" {
			t.Errorf("expected base url https://api.example.com, got %s", config.API.BaseURL)
		}

		if config.API.PollInterval.Duration != 500*time.Millisecond {
			t.Errorf("expected poll interval 500ms, got %s", config.API.PollInterval)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.API.UploadTimeout.Duration != 2*time.Minute {
			t.Errorf("unset keys should keep defaults, got upload timeout %s", config.API.UploadTimeout)
		}
	})

	t.Run("LoadConfig invalid duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api]\npoll_interval = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for invalid duration")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.API.BaseURL = " "
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for empty base url, got %v", err)
		}

		config = DefaultConfig()
		config.API.PollInterval.Duration = 0
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for zero poll interval, got %v", err)
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "https://staging.example.com")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvGoogleClientID, "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.API.BaseURL != "https://staging.example.com" {
			t.Errorf("expected env base url, got %s", config.API.BaseURL)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected env log level, got %s", config.Log.Level)
		}
		if config.Google.ClientID != "your_google_client_id" {
			t.Errorf("empty env var should not override, got %s", config.Google.ClientID)
		}
	})

	t.Run("LoadEnv reads dotenv file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(EnvDatabasePath+"=/tmp/from-dotenv.db\n"), 0644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Setenv(EnvDatabasePath, "")
		os.Unsetenv(EnvDatabasePath)

		if err := LoadEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv(EnvDatabasePath); got != "/tmp/from-dotenv.db" {
			t.Errorf("expected value from .env, got %q", got)
		}
	})

	t.Run("LoadEnv ignores missing files", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("missing file should be ignored, got %v", err)
		}
	})
}
