package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/components"
)

// AgentSample is the per-agent input to the collector.
type AgentSample struct {
	Heading r2.Vec
	Drive   components.Drive
}

// StepStats is one sampled row of steps.csv.
type StepStats struct {
	RunID   string  `csv:"run_id"`
	Step    int64   `csv:"step"`
	SimTime float64 `csv:"sim_time"`
	Agents  int     `csv:"agents"`

	// Agents per drive
	Flee         int `csv:"flee"`
	Repel        int `csv:"repel"`
	AlignAttract int `csv:"align_attract"`
	Align        int `csv:"align"`
	Attract      int `csv:"attract"`
	Cruise       int `csv:"cruise"`

	// Heading order
	Polarization float64 `csv:"polarization"` // |mean unit heading|, 1 = fully aligned
	MeanHeading  float64 `csv:"mean_heading"` // circular mean angle in radians

	FoodRemaining int64 `csv:"food_remaining"`
	Consumed      int64 `csv:"consumed"`
}

// Collector samples step statistics every interval steps.
type Collector struct {
	interval int64
	angles   []float64
}

// NewCollector creates a collector. interval <= 0 disables sampling.
func NewCollector(interval int) *Collector {
	return &Collector{interval: int64(interval)}
}

// ShouldSample reports whether step is a sampling step.
func (c *Collector) ShouldSample(step int64) bool {
	return c.interval > 0 && step%c.interval == 0
}

// Sample aggregates the agent and food state of one step.
func (c *Collector) Sample(runID string, step int64, simTime float64, agents []AgentSample, remaining []int64, consumed int64) StepStats {
	s := StepStats{
		RunID:    runID,
		Step:     step,
		SimTime:  simTime,
		Agents:   len(agents),
		Consumed: consumed,
	}

	c.angles = c.angles[:0]
	var sum r2.Vec
	for _, a := range agents {
		switch a.Drive {
		case components.DriveFlee:
			s.Flee++
		case components.DriveRepel:
			s.Repel++
		case components.DriveAlignAttract:
			s.AlignAttract++
		case components.DriveAlign:
			s.Align++
		case components.DriveAttract:
			s.Attract++
		default:
			s.Cruise++
		}
		sum = r2.Add(sum, a.Heading)
		c.angles = append(c.angles, math.Atan2(a.Heading.Y, a.Heading.X))
	}

	if len(agents) > 0 {
		s.Polarization = r2.Norm(sum) / float64(len(agents))
		s.MeanHeading = stat.CircularMean(c.angles, nil)
	}

	for _, r := range remaining {
		if r > 0 {
			s.FoodRemaining += r
		}
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("step", s.Step),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("agents", s.Agents),
		slog.Int("flee", s.Flee),
		slog.Int("repel", s.Repel),
		slog.Int("align_attract", s.AlignAttract),
		slog.Int("align", s.Align),
		slog.Int("attract", s.Attract),
		slog.Int("cruise", s.Cruise),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("mean_heading", s.MeanHeading),
		slog.Int64("food_remaining", s.FoodRemaining),
		slog.Int64("consumed", s.Consumed),
	)
}

// LogStats logs the step stats using slog.
func (s StepStats) LogStats() {
	slog.Info("stats", "run", s.RunID, "step", s)
}
