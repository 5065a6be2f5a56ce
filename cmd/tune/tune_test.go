package main

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/flock/config"
)

func TestApplyToConfigKeepsZoneOrder(t *testing.T) {
	pv := NewParamVector()
	tests := []struct {
		name string
		x    []float64
	}{
		{"defaults", pv.DefaultVector()},
		{"lower bounds", []float64{1, 0.5, 0.5, 0}},
		{"out of range", []float64{-10, -3, 100, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			pv.ApplyToConfig(cfg, tt.x)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if cfg.Swarm.Sigma < 0 || cfg.Swarm.Sigma > 0.5 {
				t.Errorf("sigma = %v outside bounds", cfg.Swarm.Sigma)
			}
		})
	}
}

func TestExtractRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	got := pv.ExtractFromConfig(cfg)

	applied := config.Default()
	pv.ApplyToConfig(applied, got)
	if applied.Zones != cfg.Zones || applied.Swarm.Sigma != cfg.Swarm.Sigma {
		t.Errorf("round trip changed zones %+v -> %+v", cfg.Zones, applied.Zones)
	}

	norm := pv.Normalize(got)
	back := pv.Denormalize(norm)
	for i := range got {
		if math.Abs(back[i]-got[i]) > 1e-12 {
			t.Errorf("param %s: %v -> %v", pv.Specs[i].Name, got[i], back[i])
		}
	}
}

func TestEvaluate(t *testing.T) {
	cfg := config.Default()
	cfg.Swarm.Agents = 5
	cfg.Experiment.MaxSteps = 40
	cfg.Refresh()
	pv := NewParamVector()

	// No food: every seed finishes after one step
	fe := NewFitnessEvaluator(pv, []int64{1, 2, 3}, cfg, config.ScenarioConfig{Name: "empty"})
	if got := fe.Evaluate(pv.DefaultVector()); got != 1 {
		t.Errorf("fitness = %v, want 1", got)
	}
	if fe.LastTerminated() != 3 {
		t.Errorf("terminated = %d, want 3", fe.LastTerminated())
	}

	// Unreachable amount of food: capped at max_steps
	fe = NewFitnessEvaluator(pv, []int64{1, 2}, cfg, config.ScenarioConfig{Name: "big", FoodCount: 1, Units: 1 << 20})
	if got := fe.Evaluate(pv.DefaultVector()); got != 40 {
		t.Errorf("fitness = %v, want 40", got)
	}
	if fe.LastTerminated() != 0 {
		t.Errorf("terminated = %d, want 0", fe.LastTerminated())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{59, "0m59s"},
		{125, "2m05s"},
		{3725, "1h02m05s"},
	}
	for _, tt := range tests {
		if got := formatDuration(time.Duration(tt.secs) * time.Second); got != tt.want {
			t.Errorf("formatDuration(%ds) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
