package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var configKeys = []string{
	"ATTENDANCE_API_BASE_URL",
	"ATTENDANCE_STATE_PATH",
	"ATTENDANCE_STATE_SECRET",
	"ATTENDANCE_LATITUDE",
	"ATTENDANCE_LONGITUDE",
	"ATTENDANCE_LOG_LEVEL",
	"ATTENDANCE_LOG_FORMAT",
}

// clearEnvironment blanks every key for the duration of the test.
func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnvironment(t)

		cfg, err := FromEnvironment()
		if err != nil {
			t.Fatalf("FromEnvironment returned error: %v", err)
		}

		if cfg.APIBaseURL != "http://localhost:8000/api" {
			t.Fatalf("unexpected default base URL: %q", cfg.APIBaseURL)
		}
		if cfg.StatePath != "attendance-client.db" {
			t.Fatalf("unexpected default state path: %q", cfg.StatePath)
		}
		if cfg.Location != nil || cfg.StateSecret != "" {
			t.Fatalf("expected optional values to be unset, got %#v", cfg)
		}
		if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
			t.Fatalf("unexpected logging defaults: %v %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("ATTENDANCE_API_BASE_URL", "https://attendance.example.com/api/")
		t.Setenv("ATTENDANCE_STATE_PATH", "/tmp/state.db")
		t.Setenv("ATTENDANCE_STATE_SECRET", " s3cret ")
		t.Setenv("ATTENDANCE_LATITUDE", "35.6812")
		t.Setenv("ATTENDANCE_LONGITUDE", "139.7671")
		t.Setenv("ATTENDANCE_LOG_LEVEL", "debug")
		t.Setenv("ATTENDANCE_LOG_FORMAT", "JSON")

		cfg, err := FromEnvironment()
		if err != nil {
			t.Fatalf("FromEnvironment returned error: %v", err)
		}
		if cfg.APIBaseURL != "https://attendance.example.com/api" {
			t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.APIBaseURL)
		}
		if cfg.StateSecret != "s3cret" {
			t.Fatalf("expected trimmed secret, got %q", cfg.StateSecret)
		}
		if cfg.Location == nil || cfg.Location.Latitude != 35.6812 || cfg.Location.Longitude != 139.7671 {
			t.Fatalf("unexpected location: %#v", cfg.Location)
		}
		if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging config: %v %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("errors when half of the location pair is missing", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("ATTENDANCE_LATITUDE", "35.6")

		_, err := FromEnvironment()
		if err == nil {
			t.Fatalf("expected error when longitude is missing")
		}
		expected := "必須の環境変数が設定されていません: ATTENDANCE_LONGITUDE"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("ATTENDANCE_API_BASE_URL", "localhost:8000")
		t.Setenv("ATTENDANCE_LATITUDE", "91")
		t.Setenv("ATTENDANCE_LONGITUDE", "east")
		t.Setenv("ATTENDANCE_LOG_LEVEL", "verbose")
		t.Setenv("ATTENDANCE_LOG_FORMAT", "xml")

		_, err := FromEnvironment()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: ATTENDANCE_API_BASE_URL, ATTENDANCE_LATITUDE, ATTENDANCE_LONGITUDE, ATTENDANCE_LOG_LEVEL, ATTENDANCE_LOG_FORMAT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnvironment(t)
	dir := t.TempDir()
	content := "ATTENDANCE_API_BASE_URL=https://from-file.example.com/api\nATTENDANCE_STATE_PATH=from-file.db\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ATTENDANCE_STATE_PATH", "from-env.db")
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://from-file.example.com/api" {
		t.Fatalf("expected base URL from env file, got %q", cfg.APIBaseURL)
	}
	if cfg.StatePath != "from-env.db" {
		t.Fatalf("expected process environment to win, got %q", cfg.StatePath)
	}
}

func TestLoad_WithoutEnvFile(t *testing.T) {
	clearEnvironment(t)
	t.Chdir(t.TempDir())

	if _, err := Load(); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}
