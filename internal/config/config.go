// Package config provides the YAML configuration file for the sgm tool.
// Frame geometry always comes from the input images; the file carries the
// algorithm parameters and tool options, with defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stereopipe/sgm/internal/sgm"
)

// Config represents the tool configuration loaded from YAML.
type Config struct {
	// Matching parameters feed sgm.Config directly.
	Matching struct {
		// MaxDisp is the disparity search range D.
		MaxDisp int `yaml:"maxDisp"`

		// P1 penalizes disparity changes of 1 between path neighbors.
		P1 float32 `yaml:"p1"`

		// P2 penalizes larger disparity discontinuities.
		P2 float32 `yaml:"p2"`

		// Paths is the aggregation topology: 1, 2 or 4 directions.
		Paths int `yaml:"paths"`
	} `yaml:"matching"`

	// Engine selects the execution model: "stream" or "batch".
	Engine string `yaml:"engine"`

	// Input parameters applied before matching.
	Input struct {
		// Scale resizes both images by this factor before matching.
		Scale float64 `yaml:"scale"`
	} `yaml:"input"`

	// Output parameters.
	Output struct {
		// DataDir is the root directory for persisted runs.
		DataDir string `yaml:"dataDir"`

		// Trace enables the per-row JSONL timing trace.
		Trace bool `yaml:"trace"`
	} `yaml:"output"`

	// Server parameters for the job server.
	Server struct {
		// Addr is the listen address.
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values: the reference
// hardware parameters and stream execution.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Matching.MaxDisp = 16
	cfg.Matching.P1 = 8
	cfg.Matching.P2 = 128
	cfg.Matching.Paths = 4
	cfg.Engine = sgm.ModeStream
	cfg.Input.Scale = 1.0
	cfg.Output.DataDir = "./data"
	cfg.Output.Trace = false
	cfg.Server.Addr = ":8080"
	return cfg
}

// LoadConfig loads configuration from a YAML file. A missing file returns
// the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Pipeline builds the core configuration for a frame of the given geometry.
func (c *Config) Pipeline(width, height int) sgm.Config {
	return sgm.Config{
		Width:   width,
		Height:  height,
		MaxDisp: c.Matching.MaxDisp,
		P1:      c.Matching.P1,
		P2:      c.Matching.P2,
		Paths:   c.Matching.Paths,
	}
}
