package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir())) // no config.yaml present
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.InDelta(t, 0.30, cfg.Policy.CriticalDeduction, 0.001)
	assert.InDelta(t, 0.70, cfg.Policy.ManualThreshold, 0.001)
	assert.InDelta(t, 0.85, cfg.Policy.AutoThreshold, 0.001)
	assert.InDelta(t, 2.0, cfg.Policy.OutlierZScore, 0.001)
	assert.Equal(t, 3, cfg.Policy.MinOutlierPeers)

	assert.InDelta(t, 2.0, cfg.Benchmark.ExcellentMax, 0.001)
	assert.InDelta(t, 2.5, cfg.Benchmark.TargetMax, 0.001)

	assert.Equal(t, 8, cfg.Engine.MaxConcurrentRecords)
	assert.InDelta(t, 1.00, cfg.Engine.ReconcileToleranceUSD, 0.001)
}

func TestLoad_ConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/waste
policy:
  auto_threshold: 0.90
`), 0o644))
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.InDelta(t, 0.90, cfg.Policy.AutoThreshold, 0.001)
	// Unset keys keep their defaults.
	assert.InDelta(t, 0.70, cfg.Policy.ManualThreshold, 0.001)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "chatty"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
