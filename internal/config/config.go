package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds application configuration values.
type Config struct {
	Env         string
	HTTPAddr    string
	Store       StoreConfig
	SeedCSV     string
	CORSOrigins []string
}

// StoreConfig selects and locates the medicine snapshot.
type StoreConfig struct {
	Driver      string
	File        string
	DatabaseDSN string
	Serialize   bool
}

// Location returns the file path or DSN the configured driver uses.
func (c StoreConfig) Location() string {
	if c.Driver == DriverSQLite {
		return c.DatabaseDSN
	}
	return c.File
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (*Config, error) {
	addr, err := loadAddr()
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverFile))
	if driver != DriverFile && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid STORE_DRIVER value %q: want %s or %s", driver, DriverFile, DriverSQLite)
	}

	serialize, err := parseBoolEnv("STORE_SERIALIZE", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:      getEnvOrDefault("APP_ENV", "development"),
		HTTPAddr: addr,
		Store: StoreConfig{
			Driver:      driver,
			File:        getEnvOrDefault("MEDICINES_FILE", "data/medicines.json"),
			DatabaseDSN: getEnvOrDefault("DATABASE_DSN", "data/medicines.db"),
			Serialize:   serialize,
		},
		SeedCSV:     strings.TrimSpace(os.Getenv("SEED_CSV")),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
	}, nil
}

// loadAddr resolves the listen address from PORT, falling back to HTTP_PORT.
func loadAddr() (string, error) {
	port := getEnvOrDefault("PORT", getEnvOrDefault("HTTP_PORT", "3000"))

	// Accept ":3000" or "127.0.0.1:3000" as well as a bare port.
	if strings.Contains(port, ":") {
		return port, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value %q", port)
	}
	return ":" + port, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
