package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "idlecore.db", cfg.DBPath)
	require.Equal(t, 8080, cfg.APIPort)
	require.Equal(t, uint64(1), cfg.Seed)
	require.Equal(t, "", cfg.AdminKey)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, "default", cfg.SaveID)
	require.Equal(t, 10, cfg.MaxHP)
	require.Equal(t, "catalog/data", cfg.CatalogDir)
}

func TestLoad_ReadsEveryEnvVar(t *testing.T) {
	t.Setenv("IDLECORE_DB_PATH", "/tmp/custom.db")
	t.Setenv("IDLECORE_API_PORT", "9090")
	t.Setenv("IDLECORE_SEED", "42")
	t.Setenv("IDLECORE_ADMIN_KEY", "secret")
	t.Setenv("IDLECORE_LOG_LEVEL", "debug")
	t.Setenv("IDLECORE_SAVE_ID", "save-2")
	t.Setenv("IDLECORE_MAX_HP", "99")
	t.Setenv("IDLECORE_CATALOG_DIR", "/srv/catalog")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/tmp/custom.db", cfg.DBPath)
	require.Equal(t, 9090, cfg.APIPort)
	require.Equal(t, uint64(42), cfg.Seed)
	require.Equal(t, "secret", cfg.AdminKey)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, "save-2", cfg.SaveID)
	require.Equal(t, 99, cfg.MaxHP)
	require.Equal(t, "/srv/catalog", cfg.CatalogDir)
}

func TestLoad_MalformedApiPortErrors(t *testing.T) {
	t.Setenv("IDLECORE_API_PORT", "not-a-number")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MalformedSeedErrors(t *testing.T) {
	t.Setenv("IDLECORE_SEED", "-1")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MalformedMaxHpErrors(t *testing.T) {
	t.Setenv("IDLECORE_MAX_HP", "ten")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_UnknownLogLevelErrors(t *testing.T) {
	t.Setenv("IDLECORE_LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
}

func TestParseLevel_AllFourLevels(t *testing.T) {
	lvl, err := parseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, lvl)

	lvl, err = parseLevel("error")
	require.NoError(t, err)
	require.Equal(t, slog.LevelError, lvl)
}

func TestLoadCatalogDir_DefaultsWhenNoOverride(t *testing.T) {
	dir, err := loadCatalogDir()
	require.NoError(t, err)
	require.Equal(t, "catalog/data", dir)
}

func TestLoadCatalogDir_HonorsEnvOverride(t *testing.T) {
	t.Setenv("IDLECORE_CATALOG_DIR", "/opt/catalog-data")
	dir, err := loadCatalogDir()
	require.NoError(t, err)
	require.Equal(t, "/opt/catalog-data", dir)
}
