package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENGINE_SIGHT_RANGE", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 12.0, cfg.Engine.SightRange)
	assert.Empty(t, cfg.Redis.URL)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("ENGINE_SEED", "1234")
	t.Setenv("TELEMETRY_ENABLED", "true")
	t.Setenv("ENGINE_TICK_SIZE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(1234), cfg.Engine.Seed)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 0.25, cfg.Engine.TickSize)
}

func TestLoad_RejectsNonPositiveSight(t *testing.T) {
	t.Setenv("ENGINE_SIGHT_RANGE", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("display_ap: 1000\ncrit_percentile: 90\n"), 0o600))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, 1000, rules.DisplayAP)
		assert.Equal(t, 90, rules.CritPercentile)
		assert.Equal(t, 50, rules.HitPercentile)
	})

	t.Run("unordered percentiles rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("hit_percentile: 10\ngraze_percentile: 20\n"), 0o600))

		_, err := LoadRules(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
