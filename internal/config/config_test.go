package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "raw_data", cfg.Input.Dir)
	assert.Equal(t, "in", cfg.Input.Sheet)
	assert.Equal(t, 30, cfg.Input.FTPTimeoutSecs)
	assert.InDelta(t, 0.0, cfg.Validation.RateLowerBound, 0.001)
	assert.InDelta(t, 100.0, cfg.Validation.RateUpperBound, 0.001)
	assert.InDelta(t, 15.0, cfg.Validation.RateWarningThreshold, 0.001)
	assert.InDelta(t, 0.40, cfg.Validation.GateThreshold, 0.001)
	assert.Equal(t, 50, cfg.Validation.TotalStates)
	assert.Equal(t, ".pipeline_state", cfg.Data.StateDir)
	assert.Equal(t, "validated_data", cfg.Data.ValidatedDir)
	assert.Equal(t, "clean_data/clean_data.jsonl", cfg.Data.CleanPath)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
validation:
  rate_warning_threshold: 12.5
  gate_threshold: 0.25
  total_states: 51
store:
  driver: postgres
  database_url: postgres://localhost/laborstat
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 12.5, cfg.Validation.RateWarningThreshold, 0.001)
	assert.InDelta(t, 0.25, cfg.Validation.GateThreshold, 0.001)
	assert.Equal(t, 51, cfg.Validation.TotalStates)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/laborstat", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults survive partial files.
	assert.InDelta(t, 100.0, cfg.Validation.RateUpperBound, 0.001)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LABORSTAT_VALIDATION_TOTAL_STATES", "48")
	t.Setenv("LABORSTAT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Validation.TotalStates)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsNonPositiveTotalStates(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LABORSTAT_VALIDATION_TOTAL_STATES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_states")
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "noisy", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
