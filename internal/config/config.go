package config

import (
	"os"
	"strconv"
	"strings"

	"fedstats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Station     StationConfig
	Coordinator CoordinatorConfig
	Privacy     PrivacyConfig
}

// StationConfig holds settings for a station daemon
type StationConfig struct {
	ID          string
	Port        string
	SourceKind  string // "csv", "excel" or "postgres"
	DataFile    string // csv / excel path
	SheetName   string // excel sheet, defaults to Sheet1
	DatabaseURL string
	TableName   string
}

// CoordinatorConfig holds settings for the coordinator daemon
type CoordinatorConfig struct {
	Port        string
	StationURLs []string
}

// PrivacyConfig holds disclosure-control settings
type PrivacyConfig struct {
	// TTestMinRecords is the minimum-disclosure threshold: a station
	// refuses to compute t-test summaries over this many records or fewer.
	TTestMinRecords int
}

// DefaultTTestMinRecords guards against reconstructing near-individual
// values from tiny groups.
const DefaultTTestMinRecords = 3

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Station: StationConfig{
			ID:          getEnvOrDefault("STATION_ID", "station-1"),
			Port:        getEnvOrDefault("STATION_PORT", "8081"),
			SourceKind:  getEnvOrDefault("STATION_SOURCE", "csv"),
			DataFile:    getEnvOrDefault("STATION_DATA_FILE", ""),
			SheetName:   getEnvOrDefault("STATION_SHEET", "Sheet1"),
			DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
			TableName:   getEnvOrDefault("STATION_TABLE", ""),
		},
		Coordinator: CoordinatorConfig{
			Port:        getEnvOrDefault("COORDINATOR_PORT", "8080"),
			StationURLs: splitList(getEnvOrDefault("STATION_URLS", "")),
		},
		Privacy: PrivacyConfig{
			TTestMinRecords: getEnvIntOrDefault("TTEST_MIN_RECORDS", DefaultTTestMinRecords),
		},
	}

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validate(config *Config) error {
	switch config.Station.SourceKind {
	case "csv", "excel":
		// DataFile checked by the daemon that actually opens it; the
		// coordinator loads this config too and has no file.
	case "postgres":
		if config.Station.DatabaseURL == "" && config.Station.TableName != "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres source")
		}
	default:
		return errors.ConfigInvalid("STATION_SOURCE must be csv, excel or postgres")
	}
	if config.Privacy.TTestMinRecords < 0 {
		return errors.ConfigInvalid("TTEST_MIN_RECORDS must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
