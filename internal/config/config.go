// Package config provides unified configuration loading for the export
// pipeline. It supports loading from YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stars-project/carla-export/internal/schema"
)

// FileName is the config file looked up under the data root.
const FileName = "carlaexport.yaml"

// Config contains all export pipeline settings.
type Config struct {
	// Simulator contains connection and lifecycle settings for the
	// simulator instance.
	Simulator SimulatorConfig `yaml:"simulator"`

	// Sampling contains the timing and geometry sampling constants.
	Sampling SamplingConfig `yaml:"sampling"`

	// Traffic configures the scenario population for recordings.
	Traffic TrafficConfig `yaml:"traffic"`

	// Weather bounds every sampled weather scalar. Defaults to the
	// simulator-documented parameter ranges.
	Weather schema.WeatherBounds `yaml:"weather"`

	// DataRoot is the directory holding the artifact store.
	DataRoot string `yaml:"data_root"`

	// SupportedMaps lists the maps the pipeline may be pointed at.
	// Requests for any other map are rejected before touching the
	// simulator.
	SupportedMaps []string `yaml:"supported_maps"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// SimulatorConfig describes how to reach (and optionally launch) the
// simulator instance.
type SimulatorConfig struct {
	// Host and Port locate the simulator bridge endpoint.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Binary is the simulator executable to launch before a job. When
	// empty, an already-running instance is assumed.
	Binary string `yaml:"binary,omitempty"`

	// StartupGrace bounds the wait for a launched instance to become
	// connectable.
	StartupGrace time.Duration `yaml:"startup_grace"`

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// SamplingConfig holds the timing and geometry constants of the
// pipeline.
type SamplingConfig struct {
	// TickDelta is the simulator's fixed timestep in synchronous mode.
	TickDelta time.Duration `yaml:"tick_delta"`

	// SampleInterval is how often the dynamic monitor snapshots actor
	// state during a replay.
	SampleInterval time.Duration `yaml:"sample_interval"`

	// RunLength is the scenario duration of one recording.
	RunLength time.Duration `yaml:"run_length"`

	// ReplayMargin is the slack added to a recording's own duration
	// before a replay is considered hung and aborted.
	ReplayMargin time.Duration `yaml:"replay_margin"`

	// SeedDistance is the waypoint spacing used to discover roads when
	// walking the map, in metres.
	SeedDistance float64 `yaml:"seed_distance"`

	// MidpointStep is the centerline sampling step for lane midpoints,
	// in metres. The terminal point of a lane is always emitted even
	// when it falls short of a full step.
	MidpointStep float64 `yaml:"midpoint_step"`
}

// TrafficConfig sizes the scenario population spawned for a recording.
type TrafficConfig struct {
	Vehicles int `yaml:"vehicles"`
	Walkers  int `yaml:"walkers"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `yaml:"level"`
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Simulator: SimulatorConfig{
			Host:           "127.0.0.1",
			Port:           2000,
			StartupGrace:   60 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
		Sampling: SamplingConfig{
			TickDelta:      50 * time.Millisecond,
			SampleInterval: 500 * time.Millisecond,
			RunLength:      5 * time.Minute,
			ReplayMargin:   2 * time.Minute,
			SeedDistance:   2.0,
			MidpointStep:   0.5,
		},
		Traffic: TrafficConfig{
			Vehicles: 200,
			Walkers:  30,
		},
		Weather:       schema.DefaultWeatherBounds(),
		DataRoot:      "generated-data",
		SupportedMaps: []string{"Town01", "Town02", "Town10"},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file, applying defaults
// for anything the file leaves unset.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Load returns the configuration for root: root/carlaexport.yaml if it
// exists, defaults otherwise. Environment overrides apply in both
// cases.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		return LoadFromFile(path)
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies CARLAEXPORT_* environment overrides on top of the
// loaded configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("CARLAEXPORT_HOST"); v != "" {
		c.Simulator.Host = v
	}
	if v := os.Getenv("CARLAEXPORT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Simulator.Port = port
		}
	}
	if v := os.Getenv("CARLAEXPORT_SIM_BINARY"); v != "" {
		c.Simulator.Binary = v
	}
	if v := os.Getenv("CARLAEXPORT_DATA_ROOT"); v != "" {
		c.DataRoot = v
	}
	if v := os.Getenv("CARLAEXPORT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// SupportsMap reports whether mapName (short or simulator-qualified)
// is in the supported set.
func (c *Config) SupportsMap(mapName string) bool {
	short := mapName
	if i := strings.LastIndex(short, "/"); i >= 0 {
		short = short[i+1:]
	}
	for _, supported := range c.SupportedMaps {
		if short == supported {
			return true
		}
	}
	return false
}

// Addr returns the simulator bridge endpoint as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Simulator.Host, c.Simulator.Port)
}
