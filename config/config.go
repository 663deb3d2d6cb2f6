// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Charge    ChargeConfig    `yaml:"charge"`
	Grid      GridConfig      `yaml:"grid"`
	Fleet     FleetConfig     `yaml:"fleet"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds frame-stepping parameters.
type SimConfig struct {
	DT float64 `yaml:"dt"` // seconds per tick
}

// ChargeConfig holds charge mutation parameters.
type ChargeConfig struct {
	Epsilon       float64 `yaml:"epsilon"`         // notification tolerance in joules
	PricePerJoule float64 `yaml:"price_per_joule"` // monetary value of one stored joule
}

// GridConfig holds reference network solver parameters.
type GridConfig struct {
	TransferRate float64 `yaml:"transfer_rate"` // imbalance fraction moved per second
}

// FleetConfig describes the batteries spawned for a headless run.
type FleetConfig struct {
	Standalone   int     `yaml:"standalone"`    // batteries without network link
	Networked    int     `yaml:"networked"`     // batteries on the power network
	SelfCharging int     `yaml:"self_charging"` // networked batteries with trickle recharge
	InitialCharge float64 `yaml:"initial_charge"`
	MaxCharge     float64 `yaml:"max_charge"`
	RechargeRate  float64 `yaml:"recharge_rate"` // joules per second
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // simulation seconds per window
}

// MQTTConfig holds the outbound notification bridge settings.
type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	BaseTopic string `yaml:"base_topic"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	TicksPerWindow int32 // telemetry window length in ticks, at least 1
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Sim.DT <= 0 {
		c.Sim.DT = 1.0 / 60.0
	}
	if c.Charge.Epsilon <= 0 {
		c.Charge.Epsilon = 1e-4
	}

	ticks := int32(c.Telemetry.StatsWindow / c.Sim.DT)
	if ticks < 1 {
		ticks = 1
	}
	c.Derived.TicksPerWindow = ticks
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
