// Package config reads process configuration once at startup, the way the
// teacher reads its own env vars in cmd/worldsim's main(): plain
// os.Getenv/strconv for the core knobs, with an optional viper layer for
// catalog-directory overrides (grounded on niceyeti-tabular's use of viper
// for layered config).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds every env-driven knob cmd/idlesim needs.
type Config struct {
	DBPath      string
	APIPort     int
	Seed        uint64
	AdminKey    string
	LogLevel    slog.Level
	CatalogDir  string
	SaveID      string
	MaxHP       int
}

// Load reads IDLECORE_* environment variables, applying the documented
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		DBPath:   getenvDefault("IDLECORE_DB_PATH", "idlecore.db"),
		APIPort:  8080,
		Seed:     1,
		AdminKey: os.Getenv("IDLECORE_ADMIN_KEY"),
		LogLevel: slog.LevelInfo,
		SaveID:   getenvDefault("IDLECORE_SAVE_ID", "default"),
		MaxHP:    10,
	}

	if v := os.Getenv("IDLECORE_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("IDLECORE_API_PORT: %w", err)
		}
		cfg.APIPort = port
	}

	if v := os.Getenv("IDLECORE_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("IDLECORE_SEED: %w", err)
		}
		cfg.Seed = seed
	}

	if v := os.Getenv("IDLECORE_MAX_HP"); v != "" {
		hp, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("IDLECORE_MAX_HP: %w", err)
		}
		cfg.MaxHP = hp
	}

	if v := os.Getenv("IDLECORE_LOG_LEVEL"); v != "" {
		lvl, err := parseLevel(v)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = lvl
	}

	catalogDir, err := loadCatalogDir()
	if err != nil {
		return Config{}, err
	}
	cfg.CatalogDir = catalogDir

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(v string) (slog.Level, error) {
	switch v {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("IDLECORE_LOG_LEVEL: unknown level %q", v)
	}
}

// loadCatalogDir resolves the catalog data directory from the
// IDLECORE_CATALOG_DIR env var, falling back to an optional
// idlecore.yaml/idlecore.json and then the default; the env var wins. This
// is the one place config reaches for viper rather than plain os.Getenv:
// catalog overrides benefit from file-based layering the rest of the
// startup config doesn't need.
func loadCatalogDir() (string, error) {
	v := viper.New()
	v.SetDefault("catalog_dir", "catalog/data")
	v.SetConfigName("idlecore")
	v.AddConfigPath(".")
	v.SetEnvPrefix("IDLECORE")
	v.BindEnv("catalog_dir")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return "", fmt.Errorf("read idlecore config file: %w", err)
		}
	}
	return v.GetString("catalog_dir"), nil
}
