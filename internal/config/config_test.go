package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(2021), cfg.Split.Seed)
	assert.Equal(t, 0.80, cfg.Split.Proportion)
	assert.Equal(t, 10, cfg.Split.Folds)
	assert.Equal(t, 5, cfg.Split.Repeats)
	assert.Equal(t, 4, cfg.Split.StrataBins)
	assert.Equal(t, 4, cfg.Eval.MaxConcurrency)
	assert.True(t, cfg.Eval.KeepModels)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Tracing.Enabled)
	assert.True(t, filepath.IsAbs(cfg.Paths.OutputDir))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLAIMSEV_SPLIT_SEED", "7")
	t.Setenv("CLAIMSEV_SPLIT_FOLDS", "5")
	t.Setenv("CLAIMSEV_LOGGING_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Split.Seed)
	assert.Equal(t, 5, cfg.Split.Folds)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
split:
  seed: 99
  proportion: 0.75
models:
  units: ["lm"]
paths:
  output_dir: ` + filepath.Join(dir, "out") + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(99), cfg.Split.Seed)
	assert.Equal(t, 0.75, cfg.Split.Proportion)
	assert.Equal(t, []string{"lm"}, cfg.Models.Units)
	// defaults survive where the file is silent
	assert.Equal(t, 10, cfg.Split.Folds)
}

func TestLoadFileOverridesBooleansAndZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
split:
  seed: 0
eval:
  keep_models: false
tracing:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// explicit file values win even when they equal the Go zero value
	assert.Equal(t, int64(0), cfg.Split.Seed)
	assert.False(t, cfg.Eval.KeepModels)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"proportion above one", func(c *Config) { c.Split.Proportion = 1.5 }},
		{"zero folds", func(c *Config) { c.Split.Folds = 0 }},
		{"negative concurrency", func(c *Config) { c.Eval.MaxConcurrency = -1 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
