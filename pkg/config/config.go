// Package config handles loading and saving citescope configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/citescope/config.yaml
//
// A config file is optional; every field has a default chosen for the
// reference citation dataset (tens of thousands of nodes).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SamplingConfig controls what fraction of the raw dataset is materialized
// into buffers at load time.
type SamplingConfig struct {
	// NodeFraction in [0,1]: fraction of raw nodes loaded, as an ordered
	// prefix of the input. Out-of-range values are clamped.
	NodeFraction float64 `yaml:"node_fraction"`
	// EdgeFraction in [0,1]: fraction of raw edges loaded, as a shuffled
	// subset. Out-of-range values are clamped.
	EdgeFraction float64 `yaml:"edge_fraction"`
}

// SizeConfig controls how normalized centrality maps to node size.
type SizeConfig struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Power float64 `yaml:"power"`
}

// TemporalConfig fixes the indexed year span. Nodes and edges outside
// [StartYear,EndYear] are never indexed for playback.
type TemporalConfig struct {
	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`
}

// PlaybackConfig controls the time-travel reveal.
type PlaybackConfig struct {
	// StepDelayMs is the pacing interval between playback ticks.
	StepDelayMs int `yaml:"step_delay_ms"`
}

// Config is the top-level configuration for citescope.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Size     SizeConfig     `yaml:"size"`
	Temporal TemporalConfig `yaml:"temporal"`
	Playback PlaybackConfig `yaml:"playback"`

	// MaxVisibleNodesWarningThreshold triggers a stderr warning when a
	// filter change leaves more nodes visible than the renderer comfortably
	// draws. 0 disables the warning.
	MaxVisibleNodesWarningThreshold int `yaml:"max_visible_nodes_warning_threshold"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Sampling: SamplingConfig{NodeFraction: 1.0, EdgeFraction: 1.0},
		Size:     SizeConfig{Min: 1.5, Max: 14, Power: 2.2},
		Temporal: TemporalConfig{StartYear: 1900, EndYear: 2030},
		Playback: PlaybackConfig{StepDelayMs: 120},

		MaxVisibleNodesWarningThreshold: 60000,
	}
}

// ConfigDir returns the XDG config directory for citescope.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "citescope")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "citescope")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from the given path. An empty path falls back
// to DefaultPath. A missing file is not an error: defaults are returned.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed.
func (c Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("no config path available")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Normalize clamps out-of-range values in place. Invalid ranges are
// repaired, never rejected: fractions clamp to [0,1], a reversed year
// span is swapped, and non-positive sizes fall back to defaults.
func (c *Config) Normalize() {
	c.Sampling.NodeFraction = clamp01(c.Sampling.NodeFraction)
	c.Sampling.EdgeFraction = clamp01(c.Sampling.EdgeFraction)

	if c.Temporal.StartYear > c.Temporal.EndYear {
		c.Temporal.StartYear, c.Temporal.EndYear = c.Temporal.EndYear, c.Temporal.StartYear
	}

	def := DefaultConfig()
	if c.Size.Min <= 0 {
		c.Size.Min = def.Size.Min
	}
	if c.Size.Max < c.Size.Min {
		c.Size.Max = c.Size.Min
	}
	if c.Size.Power <= 0 {
		c.Size.Power = def.Size.Power
	}
	if c.Playback.StepDelayMs <= 0 {
		c.Playback.StepDelayMs = def.Playback.StepDelayMs
	}
	if c.MaxVisibleNodesWarningThreshold < 0 {
		c.MaxVisibleNodesWarningThreshold = 0
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
