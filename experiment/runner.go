// Package experiment runs headless scenario sweeps and records completion
// times.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

// ctxCheckInterval is the number of steps between cancellation checks.
const ctxCheckInterval = 256

// Result holds every run record and the per-scenario summaries.
type Result struct {
	Runs      []telemetry.RunRecord
	Summaries []telemetry.Summary
}

// Runner drives scenarios x trials to completion.
type Runner struct {
	cfg       *config.Config
	out       *telemetry.OutputManager
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	logStats  bool
}

// NewRunner creates a runner. out may be nil to disable file output.
func NewRunner(cfg *config.Config, out *telemetry.OutputManager, logStats bool) *Runner {
	return &Runner{
		cfg:       cfg,
		out:       out,
		collector: telemetry.NewCollector(cfg.Telemetry.StepInterval),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		logStats:  logStats,
	}
}

// Run executes every scenario for the configured number of trials. Run k of
// the sweep uses seed experiment.seed + k. On cancellation the runs finished
// so far are returned with the context error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var res Result

	if err := r.out.WriteConfig(r.cfg); err != nil {
		return res, fmt.Errorf("writing config snapshot: %w", err)
	}

	k := int64(0)
	for _, sc := range r.cfg.Derived.Scenarios {
		scenarioRuns := make([]telemetry.RunRecord, 0, r.cfg.Experiment.Trials)

		for trial := 0; trial < r.cfg.Experiment.Trials; trial++ {
			seed := r.cfg.Experiment.Seed + k
			k++

			rec, err := r.RunOne(ctx, sc, trial, seed)
			if err != nil {
				res.Summaries = append(res.Summaries, summarize(sc.Name, scenarioRuns)...)
				return res, err
			}

			slog.Info("run complete",
				"scenario", sc.Name,
				"trial", trial,
				"seed", seed,
				"steps", rec.Steps,
				"terminated", rec.Terminated,
				"wall_seconds", rec.WallSeconds,
			)

			if err := r.out.WriteRun(rec); err != nil {
				return res, err
			}
			res.Runs = append(res.Runs, rec)
			scenarioRuns = append(scenarioRuns, rec)
		}

		sums := summarize(sc.Name, scenarioRuns)
		if r.logStats {
			for _, s := range sums {
				s.LogStats()
			}
		}
		res.Summaries = append(res.Summaries, sums...)
	}

	if err := r.out.WriteSummaries(res.Summaries); err != nil {
		return res, err
	}
	return res, nil
}

// RunOne runs a single trial of a scenario until every source is exhausted
// or experiment.max_steps is reached.
func (r *Runner) RunOne(ctx context.Context, sc config.ScenarioConfig, trial int, seed int64) (telemetry.RunRecord, error) {
	cfg := r.cfg.Clone()
	cfg.Food.Count = sc.FoodCount
	cfg.Food.Units = sc.Units
	cfg.Refresh()

	swarm, err := game.NewSwarm(cfg, game.Options{Seed: seed, Perf: r.perf})
	if err != nil {
		return telemetry.RunRecord{}, fmt.Errorf("scenario %s trial %d: %w", sc.Name, trial, err)
	}
	defer swarm.Close()
	swarm.SpawnInitial()

	rec := telemetry.RunRecord{
		RunID:     uuid.New().String(),
		Scenario:  sc.Name,
		Trial:     trial,
		Seed:      seed,
		FoodCount: sc.FoodCount,
		Units:     sc.Units,
		Predator:  cfg.Predator.Enabled,
	}

	dt := cfg.Physics.DT
	maxSteps := int64(cfg.Experiment.MaxSteps)
	perfInterval := int64(cfg.Telemetry.PerfInterval)
	start := time.Now()

	for !swarm.Terminated() && (maxSteps <= 0 || swarm.Steps() < maxSteps) {
		if swarm.Steps()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return rec, fmt.Errorf("scenario %s trial %d: %w", sc.Name, trial, err)
			}
		}

		swarm.Step(dt, Target(swarm, cfg.Experiment.Target))

		step := swarm.Steps()
		if r.collector.ShouldSample(step) {
			if err := r.writeStep(rec.RunID, swarm); err != nil {
				return rec, err
			}
		}
		if perfInterval > 0 && step%perfInterval == 0 {
			stats := r.perf.Stats()
			if r.logStats {
				stats.LogStats()
			}
			if err := r.out.WritePerf(stats, rec.RunID, step); err != nil {
				return rec, err
			}
		}
	}

	rec.WallSeconds = time.Since(start).Seconds()
	rec.Terminated = swarm.Terminated()
	rec.Steps = swarm.Steps()
	rec.SimTime = swarm.SimTime()
	rec.Consumed = swarm.Consumed()
	return rec, nil
}

func (r *Runner) writeStep(runID string, swarm *game.Swarm) error {
	agents := swarm.Agents()
	samples := make([]telemetry.AgentSample, len(agents))
	for i, a := range agents {
		samples[i] = telemetry.AgentSample{Heading: a.Heading, Drive: a.Drive}
	}
	foods := swarm.Foods()
	remaining := make([]int64, len(foods))
	for i, f := range foods {
		remaining[i] = f.Remaining
	}

	stats := r.collector.Sample(runID, swarm.Steps(), swarm.SimTime(), samples, remaining, swarm.Consumed())
	if r.logStats {
		stats.LogStats()
	}
	return r.out.WriteStep(stats)
}

// Target returns the headless pursuit point for the predator.
func Target(swarm *game.Swarm, mode string) r2.Vec {
	size := swarm.Config().World.SpaceSize
	center := r2.Vec{X: size / 2, Y: size / 2}
	if mode != config.TargetCentroid {
		return center
	}

	agents := swarm.Agents()
	if len(agents) == 0 {
		return center
	}
	var sum r2.Vec
	for _, a := range agents {
		sum = r2.Add(sum, a.Pos)
	}
	return r2.Scale(1/float64(len(agents)), sum)
}

func summarize(scenario string, runs []telemetry.RunRecord) []telemetry.Summary {
	if len(runs) == 0 {
		return nil
	}
	return []telemetry.Summary{
		telemetry.Summarize(scenario, runs, telemetry.MetricSteps),
		telemetry.Summarize(scenario, runs, telemetry.MetricSimTime),
		telemetry.Summarize(scenario, runs, telemetry.MetricWallSeconds),
	}
}
