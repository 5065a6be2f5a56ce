// Package main provides CMA-ES tuning of zone radii and heading noise for the
// fastest foraging completion.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flock/config"
)

// TuneRecord is one row of tune_log.csv.
type TuneRecord struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	Terminated  int     `csv:"terminated"`
	Repulsion   float64 `csv:"repulsion"`
	Orientation float64 `csv:"orientation"`
	Attraction  float64 `csv:"attraction"`
	Sigma       float64 `csv:"sigma"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	foodCount := flag.Int("food", 2, "Food sources per run")
	units := flag.Int64("units", 10, "Units per food source")
	maxSteps := flag.Int("max-steps", 0, "Step cap per run (0 = use config)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*configPath, *outputDir, *foodCount, *units, *maxSteps, *seeds, *maxEvals, *population); err != nil {
		slog.Error("tuning failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, foodCount int, units int64, maxSteps, seeds, maxEvals, population int) error {
	if outputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if maxSteps > 0 {
		baseCfg.Experiment.MaxSteps = maxSteps
	}
	scenario := config.ScenarioConfig{
		Name:      fmt.Sprintf("food%d_units%d", foodCount, units),
		FoodCount: foodCount,
		Units:     units,
	}

	params := NewParamVector()

	// Generate seeds for evaluation
	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg, scenario)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds run in parallel
	}

	popSize := population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Denormalize and clamp to get the values actually used
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			applied := baseCfg.Clone()
			params.ApplyToConfig(applied, clamped)
			rec := []TuneRecord{{
				Eval:        evalCount,
				Fitness:     fitness,
				Terminated:  evaluator.LastTerminated(),
				Repulsion:   applied.Zones.Repulsion,
				Orientation: applied.Zones.Orientation,
				Attraction:  applied.Zones.Attraction,
				Sigma:       applied.Swarm.Sigma,
			}}
			var werr error
			if evalCount == 1 {
				werr = gocsv.Marshal(rec, logFile)
			} else {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if werr != nil {
				slog.Error("writing tune log", "error", werr)
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: steps=%.0f done=%d/%d (best=%.0f) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, fitness, evaluator.LastTerminated(), len(evalSeeds), bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES tuning with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, maxEvals)
	fmt.Printf("Scenario %s, seeds per evaluation: %d, max steps: %d\n",
		scenario.Name, seeds, baseCfg.Experiment.MaxSteps)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluation completed")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best mean steps: %.0f\n", bestFitness)

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	fmt.Println("\nBest parameters:")
	fmt.Printf("  zones.repulsion: %.4f\n", bestCfg.Zones.Repulsion)
	fmt.Printf("  zones.orientation: %.4f\n", bestCfg.Zones.Orientation)
	fmt.Printf("  zones.attraction: %.4f\n", bestCfg.Zones.Attraction)
	fmt.Printf("  swarm.sigma: %.4f\n", bestCfg.Swarm.Sigma)

	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return nil
}
