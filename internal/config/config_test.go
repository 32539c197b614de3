package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.InputDir)
	assert.Equal(t, "*.csv", cfg.InputGlob)
	assert.Equal(t, "output/monthly.csv", cfg.AggregateFile)
	assert.Equal(t, "all", cfg.Stage)
	assert.Equal(t, "idw", cfg.Strategy)
	assert.InDelta(t, 0.0083, cfg.CellSize, 0)
	assert.InDelta(t, 2.0, cfg.IDWPower, 0)
	assert.Zero(t, cfg.IDWSearchRadius)
	assert.InDelta(t, -99.9, cfg.MissingSentinel, 0)
	assert.False(t, cfg.ZeroAsMissing)
	assert.Equal(t, "equal", cfg.ClassMethod)
	assert.Equal(t, 9, cfg.BreakCount)
	assert.Equal(t, "Yellow-Orange-Brown", cfg.ColorRamp)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.False(t, cfg.UploadEnabled())
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/data/rain")
	t.Setenv("STAGE", "rasterize")
	t.Setenv("STRATEGY", "feature")
	t.Setenv("CELL_SIZE", "0.05")
	t.Setenv("IDW_POWER", "3")
	t.Setenv("IDW_SEARCH_RADIUS", "0.5")
	t.Setenv("IDW_MAX_NEIGHBORS", "12")
	t.Setenv("ZERO_AS_MISSING", "true")
	t.Setenv("CLASS_METHOD", "manual")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/rain", cfg.InputDir)
	assert.Equal(t, "rasterize", cfg.Stage)
	assert.Equal(t, "feature", cfg.Strategy)
	assert.InDelta(t, 0.05, cfg.CellSize, 0)
	assert.InDelta(t, 3.0, cfg.IDWPower, 0)
	assert.InDelta(t, 0.5, cfg.IDWSearchRadius, 0)
	assert.Equal(t, 12, cfg.IDWMaxNeighbors)
	assert.True(t, cfg.ZeroAsMissing)
	assert.Equal(t, "manual", cfg.ClassMethod)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.True(t, cfg.UploadEnabled())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raingrid.yaml")
	yaml := "input_dir: /srv/daily\n" +
		"strategy: feature\n" +
		"cell_size: 0.01\n" +
		"style_enabled: true\n" +
		"kafka_brokers:\n  - kafka:9092\n" +
		"mapbox_timeout: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("CELL_SIZE", "0.02")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/daily", cfg.InputDir)
	assert.Equal(t, "feature", cfg.Strategy)
	assert.InDelta(t, 0.02, cfg.CellSize, 0, "env overrides file")
	assert.True(t, cfg.StyleEnabled)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, "output/months", cfg.MonthDir, "unset keys keep defaults")
}

func TestLoad_FileMapboxEnabled(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  string
		want bool
	}{
		{"token only", "mapbox_token: tok\n", "", true},
		{"file disables", "mapbox_token: tok\nmapbox_enabled: false\n", "", false},
		{"env wins over file", "mapbox_token: tok\nmapbox_enabled: false\n", "true", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "raingrid.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			t.Setenv(FileEnv, path)
			t.Setenv("MAPBOX_TOKEN", "")
			t.Setenv("MAPBOX_ENABLED", tt.env)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, "tok", cfg.MapboxToken)
			assert.Equal(t, tt.want, cfg.MapboxEnabled)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"stage", map[string]string{"STAGE": "publish"}, "STAGE"},
		{"strategy", map[string]string{"STRATEGY": "kriging"}, "STRATEGY"},
		{"cell size", map[string]string{"CELL_SIZE": "0"}, "CELL_SIZE"},
		{"cell size text", map[string]string{"CELL_SIZE": "tiny"}, "CELL_SIZE"},
		{"power", map[string]string{"IDW_POWER": "-1"}, "IDW_POWER"},
		{"class method", map[string]string{"CLASS_METHOD": "quantile"}, "CLASS_METHOD"},
		{"break count", map[string]string{"BREAK_COUNT": "0"}, "BREAK_COUNT"},
		{"zero as missing", map[string]string{"ZERO_AS_MISSING": "maybe"}, "ZERO_AS_MISSING"},
		{"mapbox timeout", map[string]string{"MAPBOX_TIMEOUT": "invalid"}, "MAPBOX_TIMEOUT"},
		{"mapbox enabled without token", map[string]string{"MAPBOX_ENABLED": "true"}, "MAPBOX_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRuns(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Runs("aggregate"))
	assert.True(t, cfg.Runs("rasterize"))
	assert.False(t, cfg.Runs("style"))

	cfg.StyleEnabled = true
	assert.True(t, cfg.Runs("style"))

	cfg.Stage = "split"
	assert.True(t, cfg.Runs("split"))
	assert.False(t, cfg.Runs("aggregate"))
}
