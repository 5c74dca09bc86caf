package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir   = "./sessions"
	DefaultTree      = "DecayTree"
	DefaultSeed      = 1
	DefaultSplit     = 0.8
	DefaultQuantiles = 500
	DefaultQSamples  = 1000000
	DefaultWorkers   = 4
	DefaultEvents    = 100000
)

type Config struct {
	DataDir        string           `yaml:"data_dir" env:"DECAYPREP_DATA_DIR"`
	Tree           string           `yaml:"tree" env:"DECAYPREP_TREE"`
	Seed           int64            `yaml:"seed" env:"DECAYPREP_SEED"`
	Frame          string           `yaml:"frame"`
	StrictRotation bool             `yaml:"strict_rotation"`
	Split          float64          `yaml:"split"`
	Variants       []string         `yaml:"variants"`
	Features       []string         `yaml:"features"`
	PhiQuantile    QuantileConfig   `yaml:"phi_quantile"`
	Simulation     SimulationConfig `yaml:"simulation"`
}

// QuantileConfig enables the quantile mode of the b_properties variant.
type QuantileConfig struct {
	Enabled   bool `yaml:"enabled"`
	Quantiles int  `yaml:"quantiles"`
	Samples   int  `yaml:"samples"`
}

type SimulationConfig struct {
	Exe            string `yaml:"exe" env:"RAPID_SIM_EXE_PATH"`
	WorkDir        string `yaml:"work_dir"`
	ConfigTemplate string `yaml:"config_template"`
	DecayTemplate  string `yaml:"decay_template"`
	Output         string `yaml:"output"`
	Events         int    `yaml:"events"`
	Workers        int    `yaml:"workers"`
	UseEvtGen      bool   `yaml:"use_evtgen"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		Tree:     DefaultTree,
		Seed:     DefaultSeed,
		Frame:    "true-mother",
		Split:    DefaultSplit,
		Variants: []string{"momenta"},
		PhiQuantile: QuantileConfig{
			Quantiles: DefaultQuantiles,
			Samples:   DefaultQSamples,
		},
		Simulation: SimulationConfig{
			WorkDir: "./rapidsim",
			Output:  "merged.csv",
			Events:  DefaultEvents,
			Workers: DefaultWorkers,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in a yaml file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides c with the environment variables that are set.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve layers defaults, an optional preset, an optional file and the
// environment, in that order. Command-line flags go on top.
func Resolve(task, preset, path string) (*Config, error) {
	cfg := DefaultConfig()
	if preset != "" {
		p := GetPreset(task, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", task, preset)
		}
		cfg.overlay(p)
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay copies the non-zero fields of p onto c.
func (c *Config) overlay(p *Config) {
	if p.DataDir != "" {
		c.DataDir = p.DataDir
	}
	if p.Tree != "" {
		c.Tree = p.Tree
	}
	if p.Seed != 0 {
		c.Seed = p.Seed
	}
	if p.Frame != "" {
		c.Frame = p.Frame
	}
	if p.StrictRotation {
		c.StrictRotation = true
	}
	if p.Split != 0 {
		c.Split = p.Split
	}
	if p.Variants != nil {
		c.Variants = append([]string(nil), p.Variants...)
	}
	if p.Features != nil {
		c.Features = append([]string(nil), p.Features...)
	}
	if p.PhiQuantile.Enabled {
		c.PhiQuantile.Enabled = true
	}
	if p.PhiQuantile.Quantiles != 0 {
		c.PhiQuantile.Quantiles = p.PhiQuantile.Quantiles
	}
	if p.PhiQuantile.Samples != 0 {
		c.PhiQuantile.Samples = p.PhiQuantile.Samples
	}
	s := p.Simulation
	if s.Exe != "" {
		c.Simulation.Exe = s.Exe
	}
	if s.WorkDir != "" {
		c.Simulation.WorkDir = s.WorkDir
	}
	if s.ConfigTemplate != "" {
		c.Simulation.ConfigTemplate = s.ConfigTemplate
	}
	if s.DecayTemplate != "" {
		c.Simulation.DecayTemplate = s.DecayTemplate
	}
	if s.Output != "" {
		c.Simulation.Output = s.Output
	}
	if s.Events != 0 {
		c.Simulation.Events = s.Events
	}
	if s.Workers != 0 {
		c.Simulation.Workers = s.Workers
	}
	if s.UseEvtGen {
		c.Simulation.UseEvtGen = true
	}
}
