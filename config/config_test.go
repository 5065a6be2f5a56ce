package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.World.SpaceSize != 120 {
		t.Errorf("space_size = %v, want 120", cfg.World.SpaceSize)
	}
	if cfg.Swarm.MaxTurnRate != 0.0872665 {
		t.Errorf("max_turn_rate = %v, want 0.0872665", cfg.Swarm.MaxTurnRate)
	}
	if cfg.Derived.PredatorSpeed != 1.5 {
		t.Errorf("derived predator speed = %v, want 1.5", cfg.Derived.PredatorSpeed)
	}
	if len(cfg.Derived.Scenarios) != 4 {
		t.Errorf("scenarios = %d, want 4", len(cfg.Derived.Scenarios))
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flock.yaml")
	overlay := []byte("swarm:\n  agents: 7\nzones:\n  attraction: 40\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load overlay: %v", err)
	}
	if cfg.Swarm.Agents != 7 {
		t.Errorf("agents = %d, want 7", cfg.Swarm.Agents)
	}
	if cfg.Zones.Attraction != 40 {
		t.Errorf("attraction = %v, want 40", cfg.Zones.Attraction)
	}
	// Untouched fields keep their defaults
	if cfg.Zones.Repulsion != 5 {
		t.Errorf("repulsion = %v, want default 5", cfg.Zones.Repulsion)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateZoneOrdering(t *testing.T) {
	tests := []struct {
		name          string
		rep, ori, att float64
		wantErr       bool
	}{
		{"ordered", 5, 30, 32, false},
		{"repulsion equals orientation", 5, 5, 32, true},
		{"orientation above attraction", 5, 40, 32, true},
		{"reversed", 32, 30, 5, true},
		{"zero repulsion", 0, 30, 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Zones = ZonesConfig{Repulsion: tt.rep, Orientation: tt.ori, Attraction: tt.att}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestValidatePredatorRadius(t *testing.T) {
	cfg := Default()
	cfg.Predator.Radius = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid with predator radius 0, got %v", err)
	}

	cfg.Predator.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled predator should not be validated, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Experiment.Scenarios[0].Units = 999
	cp.Swarm.Speed = 3
	cp.Refresh()

	if cfg.Experiment.Scenarios[0].Units == 999 {
		t.Error("clone shares scenario slice with original")
	}
	if cp.Derived.PredatorSpeed != 4.5 {
		t.Errorf("clone derived predator speed = %v, want 4.5", cp.Derived.PredatorSpeed)
	}
	if cfg.Derived.PredatorSpeed != 1.5 {
		t.Errorf("original derived predator speed changed to %v", cfg.Derived.PredatorSpeed)
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Swarm.Agents = 11
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if loaded.Swarm.Agents != 11 {
		t.Errorf("agents = %d, want 11", loaded.Swarm.Agents)
	}
}
