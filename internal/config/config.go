package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override (CASTFX_POOL_WORKERS etc).
const EnvPrefix = "CASTFX_"

// Server holds all configuration for the cast bench process.
type Server struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Pool    Pool    `yaml:"pool" envPrefix:"POOL_"`
	Effect  Effect  `yaml:"effect" envPrefix:"EFFECT_"`
	Network Network `yaml:"network" envPrefix:"NETWORK_"`
	World   World   `yaml:"world" envPrefix:"WORLD_"`
	Metrics Metrics `yaml:"metrics" envPrefix:"METRICS_"`
	Bench   Bench   `yaml:"bench" envPrefix:"BENCH_"`
}

// Pool sizes the job pool.
type Pool struct {
	Name    string `yaml:"name" env:"NAME"`
	Workers int    `yaml:"workers" env:"WORKERS"` // 0 = NumCPU-1
}

// Effect tunes effect resolution.
type Effect struct {
	ResultDelay time.Duration `yaml:"result_delay" env:"RESULT_DELAY"`
}

// Network holds per-connection outbox settings.
type Network struct {
	SendQueueSize int           `yaml:"send_queue_size" env:"SEND_QUEUE_SIZE"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

// World tunes the spatial index.
type World struct {
	VisibilityRange int64 `yaml:"visibility_range" env:"VISIBILITY_RANGE"` // 0 = whole 3×3 window
}

// Metrics configures the Prometheus endpoint.
// Disabled by enabled: false (CASTFX_METRICS_ENABLED=false). An empty addr in
// the YAML file disables it too; an empty CASTFX_METRICS_ADDR counts as unset.
type Metrics struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

// Serving reports whether the metrics endpoint should be started.
func (m Metrics) Serving() bool {
	return m.Enabled && m.Addr != ""
}

// Bench drives the demo cast loop.
type Bench struct {
	Players  int           `yaml:"players" env:"PLAYERS"`
	Npcs     int           `yaml:"npcs" env:"NPCS"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Casts    int           `yaml:"casts" env:"CASTS"` // 0 = until stopped
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel: "info",
		Pool: Pool{
			Name:    "effects",
			Workers: 0,
		},
		Effect: Effect{
			ResultDelay: time.Second,
		},
		Network: Network{
			SendQueueSize: 256,
			WriteTimeout:  5 * time.Second,
		},
		World: World{
			VisibilityRange: 3000,
		},
		Metrics: Metrics{
			Enabled: true,
			Addr:    ":9102",
		},
		Bench: Bench{
			Players:  16,
			Npcs:     32,
			Interval: 500 * time.Millisecond,
		},
	}
}

// LoadServer loads config from a YAML file and applies CASTFX_* overrides.
// If the file doesn't exist, defaults are used.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parsing env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (s Server) Validate() error {
	if s.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be >= 0, got %d", s.Pool.Workers)
	}
	if s.Effect.ResultDelay < 0 {
		return fmt.Errorf("effect.result_delay must be >= 0, got %s", s.Effect.ResultDelay)
	}
	if s.Network.SendQueueSize <= 0 {
		return fmt.Errorf("network.send_queue_size must be > 0, got %d", s.Network.SendQueueSize)
	}
	if s.World.VisibilityRange < 0 {
		return fmt.Errorf("world.visibility_range must be >= 0, got %d", s.World.VisibilityRange)
	}
	if s.Bench.Interval <= 0 {
		return fmt.Errorf("bench.interval must be > 0, got %s", s.Bench.Interval)
	}
	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a config level name onto slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
