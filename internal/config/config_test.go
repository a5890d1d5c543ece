package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hybrid", cfg.Engine.Mode)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Detectors.Claude.Model)
	assert.InDelta(t, 40, cfg.Detectors.Roboflow.Confidence, 0.001)
	assert.Equal(t, 3, cfg.Detectors.Retry.Attempts)
	assert.Equal(t, 200, cfg.Detectors.Retry.BaseDelayMS)
	assert.Equal(t, 2000, cfg.Detectors.Retry.MaxDelayMS)
	assert.Equal(t, 5, cfg.Detectors.Breaker.Threshold)
	assert.Equal(t, 30, cfg.Detectors.Breaker.CooldownSecs)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "ocean-sentinel.db", cfg.Cache.URL)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, "ocean-sentinel/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.InDelta(t, 5, cfg.Fetch.RatePerHost, 0.001)
	assert.Equal(t, int64(20), cfg.Fetch.MaxMB)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
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
engine:
  mode: heuristic
cache:
  driver: postgres
  url: postgres://localhost/sentinel
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "heuristic", cfg.Engine.Mode)
	assert.Equal(t, "postgres", cfg.Cache.Driver)
	assert.Equal(t, "postgres://localhost/sentinel", cfg.Cache.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Batch.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
engine:
  mode: heuristic
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("OCEAN_ENGINE_MODE", "remote")
	t.Setenv("OCEAN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "remote", cfg.Engine.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("OCEAN_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestCacheTTL(t *testing.T) {
	cfg := CacheConfig{TTLHours: 24}
	assert.Equal(t, 24*time.Hour, cfg.TTL())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Engine.Mode = "hybrid"
	cfg.Cache.Driver = "sqlite"
	cfg.Cache.URL = "ocean-sentinel.db"
	cfg.Cache.TTLHours = 24
	cfg.Detectors.Retry.Attempts = 3
	cfg.Detectors.Roboflow.Confidence = 40
	cfg.Batch.Concurrency = 4
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateAnalyze_NoKeysRequired(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateEngineMode(t *testing.T) {
	cfg := validDefaults()
	cfg.Engine.Mode = "psychic"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "engine.mode must be heuristic, remote, or hybrid")
}

func TestValidateCacheDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.Driver = "redis"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver must be sqlite, postgres, or none")
}

func TestValidateLabeler(t *testing.T) {
	cfg := validDefaults()

	cfg.Detectors.Labeler = "vision"
	assert.NoError(t, cfg.Validate("analyze"))

	cfg.Detectors.Labeler = "claude"
	assert.NoError(t, cfg.Validate("analyze"))

	cfg.Detectors.Labeler = "tarot"
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "detectors.labeler must be vision or claude")
}

func TestValidateRoboflowConfidence(t *testing.T) {
	cfg := validDefaults()

	cfg.Detectors.Roboflow.Confidence = -1
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "detectors.roboflow.confidence must be between 0 and 100")

	cfg.Detectors.Roboflow.Confidence = 101
	err = cfg.Validate("analyze")
	assert.Error(t, err)

	cfg.Detectors.Roboflow.Confidence = 100
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 64")

	cfg.Batch.Concurrency = 65
	err = cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 64")

	cfg.Batch.Concurrency = 64
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateCacheMode(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("cache"))

	cfg.Cache.Driver = "none"
	err := cfg.Validate("cache")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to manage")

	cfg.Cache.Driver = "sqlite"
	cfg.Cache.URL = ""
	err = cfg.Validate("cache")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
