package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "castfx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadServer_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServer(), cfg)
}

func TestLoadServer_YAML(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
pool:
  name: casts
  workers: 3
effect:
  result_delay: 250ms
network:
  send_queue_size: 64
  write_timeout: 2s
metrics:
  addr: ""
`)

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "casts", cfg.Pool.Name)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Effect.ResultDelay)
	assert.Equal(t, 64, cfg.Network.SendQueueSize)
	assert.Equal(t, 2*time.Second, cfg.Network.WriteTimeout)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.False(t, cfg.Metrics.Serving())
	// не указанное в файле остаётся дефолтным
	assert.Equal(t, DefaultServer().Bench, cfg.Bench)
}

func TestLoadServer_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pool:\n  workers: 3\n")
	t.Setenv("CASTFX_POOL_WORKERS", "7")
	t.Setenv("CASTFX_EFFECT_RESULT_DELAY", "1500ms")
	t.Setenv("CASTFX_LOG_LEVEL", "warn")

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Pool.Workers)
	assert.Equal(t, 1500*time.Millisecond, cfg.Effect.ResultDelay)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadServer_VisibilityRange(t *testing.T) {
	cfg, err := LoadServer(writeConfig(t, "world:\n  visibility_range: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.World.VisibilityRange)

	t.Setenv("CASTFX_WORLD_VISIBILITY_RANGE", "4500")
	cfg, err = LoadServer(writeConfig(t, "world:\n  visibility_range: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(4500), cfg.World.VisibilityRange)
}

func TestLoadServer_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "pool: [\n"},
		{"negative workers", "pool:\n  workers: -1\n"},
		{"zero queue", "network:\n  send_queue_size: 0\n"},
		{"unknown level", "log_level: loud\n"},
		{"negative visibility", "world:\n  visibility_range: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadServer(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoadServer_MetricsToggle(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Serving())

	cfg, err = LoadServer(writeConfig(t, "metrics:\n  enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Serving())

	// пустая переменная окружения не считается значением
	t.Setenv("CASTFX_METRICS_ADDR", "")
	cfg, err = LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	assert.True(t, cfg.Metrics.Serving())

	t.Setenv("CASTFX_METRICS_ENABLED", "false")
	cfg, err = LoadServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Serving())
}
