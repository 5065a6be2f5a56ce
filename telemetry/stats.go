package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// RunRecord is one completed (or capped) run of a scenario.
type RunRecord struct {
	RunID       string  `csv:"run_id"`
	Scenario    string  `csv:"scenario"`
	Trial       int     `csv:"trial"`
	Seed        int64   `csv:"seed"`
	FoodCount   int     `csv:"food_count"`
	Units       int64   `csv:"units"`
	Predator    bool    `csv:"predator"`
	Terminated  bool    `csv:"terminated"`
	Steps       int64   `csv:"steps"`
	SimTime     float64 `csv:"sim_time"`
	WallSeconds float64 `csv:"wall_seconds"`
	Consumed    int64   `csv:"consumed"`
}

// Summary holds the box-plot statistics of completion times for a scenario.
type Summary struct {
	Scenario   string  `csv:"scenario"`
	Metric     string  `csv:"metric"`
	Runs       int     `csv:"runs"`
	Terminated int     `csv:"terminated"`
	Mean       float64 `csv:"mean"`
	Std        float64 `csv:"std"`
	Min        float64 `csv:"min"`
	Q1         float64 `csv:"q1"`
	Median     float64 `csv:"median"`
	Q3         float64 `csv:"q3"`
	Max        float64 `csv:"max"`
}

// Percentile returns the p-th quantile of a sorted slice using the empirical
// CDF. p should be in [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(clamp01(p), stat.Empirical, sorted, nil)
}

// Metric selects the measured quantity of a run.
type Metric struct {
	Name  string
	Value func(RunRecord) float64
}

// Completion metrics reported per scenario.
var (
	MetricSteps       = Metric{Name: "steps", Value: func(r RunRecord) float64 { return float64(r.Steps) }}
	MetricSimTime     = Metric{Name: "sim_time", Value: func(r RunRecord) float64 { return r.SimTime }}
	MetricWallSeconds = Metric{Name: "wall_seconds", Value: func(r RunRecord) float64 { return r.WallSeconds }}
)

// Summarize computes completion-time statistics for the given runs.
func Summarize(scenario string, runs []RunRecord, m Metric) Summary {
	s := Summary{Scenario: scenario, Metric: m.Name, Runs: len(runs)}
	if len(runs) == 0 {
		return s
	}

	values := make([]float64, len(runs))
	for i, r := range runs {
		values[i] = m.Value(r)
		if r.Terminated {
			s.Terminated++
		}
	}
	slices.Sort(values)

	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min = values[0]
	s.Max = values[len(values)-1]
	s.Q1 = Percentile(values, 0.25)
	s.Median = Percentile(values, 0.5)
	s.Q3 = Percentile(values, 0.75)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scenario", s.Scenario),
		slog.String("metric", s.Metric),
		slog.Int("runs", s.Runs),
		slog.Int("terminated", s.Terminated),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("q1", s.Q1),
		slog.Float64("median", s.Median),
		slog.Float64("q3", s.Q3),
		slog.Float64("max", s.Max),
	)
}

// LogStats logs the summary using slog.
func (s Summary) LogStats() {
	slog.Info("summary", "stats", s)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
