package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DATA_FILE", "MAX_ROWS", "REDIS_ADDR", "GROQ_MODEL", "GROQ_TEMPERATURE", "DETECTION_CONFIG", "SESSION_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, ":8888", cfg.HTTPAddr)
	assert.Equal(t, DefaultDataFile, cfg.DataFile)
	assert.Equal(t, DefaultMaxRows, cfg.MaxRows)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, DefaultGroqModel, cfg.GroqModel)
	assert.Equal(t, float32(DefaultTemperature), cfg.Temperature)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, detection.DefaultThresholds(), cfg.Thresholds)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DETECTION_CONFIG", "")
	t.Setenv("MAX_ROWS", "500")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("GROQ_TEMPERATURE", "0.2")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxRows)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-6)
}

func TestFromEnv_TuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detection.yaml")
	content := "detection:\n  z_score: 3\n  attack_fraction: 0.5\nexplain:\n  model: llama-3.1-8b-instant\n  temperature: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("DETECTION_CONFIG", path)
	t.Setenv("GROQ_MODEL", "")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Thresholds.ZScore)
	assert.Equal(t, 0.5, cfg.Thresholds.AttackFraction)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.GroqModel)
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-6)
}

func TestFromEnv_ZeroTemperatureRejected(t *testing.T) {
	t.Setenv("DETECTION_CONFIG", "")
	t.Setenv("GROQ_TEMPERATURE", "0")

	_, err := FromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_TEMPERATURE")
}

func TestFromEnv_MissingTuningFile(t *testing.T) {
	t.Setenv("DETECTION_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTPAddr:    ":8888",
			DataFile:    "flows.csv",
			MaxRows:     10,
			Temperature: 0.5,
			Thresholds:  detection.DefaultThresholds(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing addr", func(c *Config) { c.HTTPAddr = "" }, "HTTP_ADDR"},
		{"missing data file", func(c *Config) { c.DataFile = "" }, "DATA_FILE"},
		{"negative rows", func(c *Config) { c.MaxRows = -1 }, "MAX_ROWS"},
		{"zero z-score", func(c *Config) { c.Thresholds.ZScore = 0 }, "z_score"},
		{"fraction of one", func(c *Config) { c.Thresholds.AttackFraction = 1 }, "attack_fraction"},
		{"hot temperature", func(c *Config) { c.Temperature = 3 }, "GROQ_TEMPERATURE"},
		{"zero temperature", func(c *Config) { c.Temperature = 0 }, "GROQ_TEMPERATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())
}
