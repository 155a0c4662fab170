// Package config loads simulator settings from YAML, then applies
// environment overrides and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/steering-simulator/internal/logging"
	"github.com/signalsfoundry/steering-simulator/internal/observability"
	"github.com/signalsfoundry/steering-simulator/world"
)

// ErrConfigInvalid wraps every validation failure.
var ErrConfigInvalid = errors.New("config: invalid")

// Environment variables read by ApplyEnv.
const (
	EnvMillisecondsPerTick    = "SIM_MS_PER_TICK"
	EnvSimMillisecondsPerTick = "SIM_SIM_MS_PER_TICK"
	EnvMetricsAddr            = "SIM_METRICS_ADDR"
	EnvGRPCAddr               = "SIM_GRPC_ADDR"
)

// Config is the full simulator configuration file.
// All top-level sections must be listed to satisfy KnownFields(true).
type Config struct {
	World    WorldConfig                 `yaml:"world"`
	Logging  logging.Config              `yaml:"logging"`
	Metrics  MetricsConfig               `yaml:"metrics"`
	GRPC     GRPCConfig                  `yaml:"grpc"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
	Scenario ScenarioConfig              `yaml:"scenario"`
}

// WorldConfig sets the tick cadence.
type WorldConfig struct {
	MillisecondsPerTick    int     `yaml:"milliseconds_per_tick"`
	SimMillisecondsPerTick int     `yaml:"sim_milliseconds_per_tick"`
	StartTick              float64 `yaml:"start_tick"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GRPCConfig controls the control-plane server.
type GRPCConfig struct {
	Addr       string `yaml:"addr"`
	Reflection bool   `yaml:"reflection"`
}

// ScenarioConfig describes the actors created at startup.
type ScenarioConfig struct {
	// MeterLength scales world units to meters. Zero means 1.
	MeterLength float64 `yaml:"meter_length"`
	// DurationTicks stops the run command after this many ticks. Zero runs
	// until interrupted.
	DurationTicks int           `yaml:"duration_ticks"`
	Actors        []ActorConfig `yaml:"actors"`
}

// ActorConfig places one actor and lists its initial moves.
type ActorConfig struct {
	Name            string       `yaml:"name"`
	X               float64      `yaml:"x"`
	Y               float64      `yaml:"y"`
	Heading         float64      `yaml:"heading"`
	MaxSpeed        *float64     `yaml:"max_speed"`
	MaxAcceleration *float64     `yaml:"max_acceleration"`
	WanderSeed      *uint64      `yaml:"wander_seed"`
	Moves           []MoveConfig `yaml:"moves"`
}

// MoveConfig is one movement command issued when the scenario starts.
type MoveConfig struct {
	Target        [2]float64 `yaml:"target"`
	Speed         float64    `yaml:"speed"`
	Dynamic       bool       `yaml:"dynamic"`
	Wander        bool       `yaml:"wander"`
	UpdateHeading bool       `yaml:"update_heading"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		World: WorldConfig{
			MillisecondsPerTick:    world.DefaultMillisecondsPerTick,
			SimMillisecondsPerTick: world.DefaultMillisecondsPerTick,
		},
		Logging: logging.Config{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		GRPC:    GRPCConfig{Addr: ":50051"},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load reads path (or only defaults when path is empty), applies the
// process environment and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides using getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	intVars := []struct {
		name string
		dst  *int
	}{
		{EnvMillisecondsPerTick, &c.World.MillisecondsPerTick},
		{EnvSimMillisecondsPerTick, &c.World.SimMillisecondsPerTick},
	}
	for _, v := range intVars {
		raw := getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrConfigInvalid, v.name, raw)
		}
		*v.dst = n
	}
	if addr := getenv(EnvMetricsAddr); addr != "" {
		c.Metrics.Addr = addr
	}
	if addr := getenv(EnvGRPCAddr); addr != "" {
		c.GRPC.Addr = addr
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := getenv("LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.World.MillisecondsPerTick <= 0 {
		errs = append(errs, fmt.Errorf("world.milliseconds_per_tick must be positive, got %d", c.World.MillisecondsPerTick))
	}
	if c.World.SimMillisecondsPerTick <= 0 {
		errs = append(errs, fmt.Errorf("world.sim_milliseconds_per_tick must be positive, got %d", c.World.SimMillisecondsPerTick))
	}
	if c.World.StartTick < 0 {
		errs = append(errs, fmt.Errorf("world.start_tick must not be negative, got %v", c.World.StartTick))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics.addr is required when metrics are enabled"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}
	if c.Scenario.MeterLength < 0 {
		errs = append(errs, fmt.Errorf("scenario.meter_length must not be negative, got %v", c.Scenario.MeterLength))
	}
	if c.Scenario.DurationTicks < 0 {
		errs = append(errs, fmt.Errorf("scenario.duration_ticks must not be negative, got %d", c.Scenario.DurationTicks))
	}
	seen := make(map[string]bool, len(c.Scenario.Actors))
	for i, a := range c.Scenario.Actors {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("scenario.actors[%d].name is required", i))
		} else if seen[a.Name] {
			errs = append(errs, fmt.Errorf("scenario.actors[%d].name %q is duplicated", i, a.Name))
		}
		seen[a.Name] = true
		if a.MaxSpeed != nil && *a.MaxSpeed < 0 {
			errs = append(errs, fmt.Errorf("scenario.actors[%d].max_speed must not be negative", i))
		}
		if a.MaxAcceleration != nil && *a.MaxAcceleration < 0 {
			errs = append(errs, fmt.Errorf("scenario.actors[%d].max_acceleration must not be negative", i))
		}
		for j, m := range a.Moves {
			if m.Speed <= 0 {
				errs = append(errs, fmt.Errorf("scenario.actors[%d].moves[%d].speed must be positive", i, j))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
}

// WorldConfig converts the world section for world.New.
func (c Config) WorldConfig() world.Config {
	return world.Config{
		MillisecondsPerTick:    c.World.MillisecondsPerTick,
		SimMillisecondsPerTick: c.World.SimMillisecondsPerTick,
		StartTick:              c.World.StartTick,
	}
}
