package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `sampling:
  node_fraction: 0.25
playback:
  step_delay_ms: 40
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sampling.NodeFraction != 0.25 {
		t.Errorf("node_fraction = %v, want 0.25", cfg.Sampling.NodeFraction)
	}
	if cfg.Playback.StepDelayMs != 40 {
		t.Errorf("step_delay_ms = %d, want 40", cfg.Playback.StepDelayMs)
	}
	// Untouched sections keep their defaults.
	if cfg.Size != DefaultConfig().Size {
		t.Errorf("size = %+v, want defaults", cfg.Size)
	}
	if cfg.Temporal != DefaultConfig().Temporal {
		t.Errorf("temporal = %+v, want defaults", cfg.Temporal)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sampling: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("Load succeeded on malformed YAML")
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg after parse error = %+v, want defaults", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Sampling.EdgeFraction = 0.5
	cfg.Temporal.StartYear = 1950

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{
		Sampling: SamplingConfig{NodeFraction: 1.7, EdgeFraction: -0.2},
		Size:     SizeConfig{Min: -1, Max: 0.5, Power: 0},
		Temporal: TemporalConfig{StartYear: 2030, EndYear: 1900},
		Playback: PlaybackConfig{StepDelayMs: -10},

		MaxVisibleNodesWarningThreshold: -1,
	}
	cfg.Normalize()

	if cfg.Sampling.NodeFraction != 1 || cfg.Sampling.EdgeFraction != 0 {
		t.Errorf("fractions = %v, %v; want clamped to 1, 0",
			cfg.Sampling.NodeFraction, cfg.Sampling.EdgeFraction)
	}
	if cfg.Temporal.StartYear != 1900 || cfg.Temporal.EndYear != 2030 {
		t.Errorf("years = [%d, %d], want swapped to [1900, 2030]",
			cfg.Temporal.StartYear, cfg.Temporal.EndYear)
	}
	def := DefaultConfig()
	if cfg.Size.Min != def.Size.Min {
		t.Errorf("size min = %v, want default %v", cfg.Size.Min, def.Size.Min)
	}
	if cfg.Size.Max != cfg.Size.Min {
		t.Errorf("size max = %v, want raised to min %v", cfg.Size.Max, cfg.Size.Min)
	}
	if cfg.Size.Power != def.Size.Power {
		t.Errorf("size power = %v, want default %v", cfg.Size.Power, def.Size.Power)
	}
	if cfg.Playback.StepDelayMs != def.Playback.StepDelayMs {
		t.Errorf("step delay = %d, want default %d", cfg.Playback.StepDelayMs, def.Playback.StepDelayMs)
	}
	if cfg.MaxVisibleNodesWarningThreshold != 0 {
		t.Errorf("warning threshold = %d, want 0", cfg.MaxVisibleNodesWarningThreshold)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	want := filepath.Join("/tmp/xdg-test", "citescope")
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}
