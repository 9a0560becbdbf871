// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Scenario ScenarioConfig `toml:"scenario"`
	Solver   SolverConfig   `toml:"solver"`
	Output   OutputConfig   `toml:"output"`
}

// ScenarioConfig maps the interception scenario.
type ScenarioConfig struct {
	Speed    *float64 `toml:"speed"`
	TargetX  *float64 `toml:"target-x"`
	TargetY  *float64 `toml:"target-y"`
	TargetVX *float64 `toml:"target-vx"`
	TargetVY *float64 `toml:"target-vy"`
	Gravity  *float64 `toml:"gravity"`
}

// SolverConfig maps root finder settings.
type SolverConfig struct {
	Theta0        *float64 `toml:"theta0"`
	T0            *float64 `toml:"t0"`
	Tolerance     *float64 `toml:"tolerance"`
	MaxIterations *int     `toml:"max-iter"`
	Strict        *bool    `toml:"strict"`
}

// OutputConfig maps rendering and persistence settings.
type OutputConfig struct {
	Samples *int  `toml:"samples"`
	Plot    *bool `toml:"plot"`
	Save    *bool `toml:"save"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
