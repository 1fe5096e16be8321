package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/example/attendance-client/internal/logging"
)

// DefaultEnvFile is loaded before the process environment is read when present.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the attendance client.
type Config struct {
	APIBaseURL  string
	StatePath   string
	StateSecret string
	// Location is the fixed coordinate to report instead of prompting. Nil when unset.
	Location  *Location
	LogLevel  slog.Level
	LogFormat string
}

// Location is a configured latitude/longitude pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Load reads DefaultEnvFile, if any, and then parses the process environment.
// Values already present in the environment are never overridden by the file.
func Load() (Config, error) {
	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return Config{}, err
	}
	return FromEnvironment()
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// FromEnvironment parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields and reports every missing or
// invalid key in a single error.
func FromEnvironment() (Config, error) {
	cfg := Config{
		APIBaseURL: "http://localhost:8000/api",
		StatePath:  "attendance-client.db",
		LogLevel:   slog.LevelInfo,
		LogFormat:  "text",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if base := strings.TrimSpace(os.Getenv("ATTENDANCE_API_BASE_URL")); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			invalid = append(invalid, "ATTENDANCE_API_BASE_URL")
		} else {
			cfg.APIBaseURL = strings.TrimRight(base, "/")
		}
	}

	if path := strings.TrimSpace(os.Getenv("ATTENDANCE_STATE_PATH")); path != "" {
		cfg.StatePath = path
	}

	cfg.StateSecret = strings.TrimSpace(os.Getenv("ATTENDANCE_STATE_SECRET"))

	latValue := strings.TrimSpace(os.Getenv("ATTENDANCE_LATITUDE"))
	lngValue := strings.TrimSpace(os.Getenv("ATTENDANCE_LONGITUDE"))
	switch {
	case latValue == "" && lngValue == "":
	case latValue == "":
		missing = append(missing, "ATTENDANCE_LATITUDE")
	case lngValue == "":
		missing = append(missing, "ATTENDANCE_LONGITUDE")
	default:
		lat, latErr := strconv.ParseFloat(latValue, 64)
		if latErr != nil || lat < -90 || lat > 90 {
			invalid = append(invalid, "ATTENDANCE_LATITUDE")
		}
		lng, lngErr := strconv.ParseFloat(lngValue, 64)
		if lngErr != nil || lng < -180 || lng > 180 {
			invalid = append(invalid, "ATTENDANCE_LONGITUDE")
		}
		if latErr == nil && lngErr == nil {
			cfg.Location = &Location{Latitude: lat, Longitude: lng}
		}
	}

	if levelValue := os.Getenv("ATTENDANCE_LOG_LEVEL"); levelValue != "" {
		level, ok := logging.ParseLevel(levelValue)
		if !ok {
			invalid = append(invalid, "ATTENDANCE_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if format := strings.ToLower(strings.TrimSpace(os.Getenv("ATTENDANCE_LOG_FORMAT"))); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "ATTENDANCE_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
