package main

import (
	"context"
	"math"
	"sync"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/experiment"
)

// FitnessEvaluator runs headless swarms and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	scenario   config.ScenarioConfig

	mu             sync.Mutex
	lastTerminated int // runs of the most recent Evaluate that finished the food
}

// NewFitnessEvaluator creates a new evaluator for one scenario.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, sc config.ScenarioConfig) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		scenario:   sc,
	}
}

// LastTerminated returns how many seeds of the most recent evaluation
// consumed every food unit before experiment.max_steps.
func (fe *FitnessEvaluator) LastTerminated() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastTerminated
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the mean completion step count over all seeds; a run that hits
// max_steps counts as max_steps.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	type seedResult struct {
		steps      int64
		terminated bool
		err        error
	}

	// Run all seeds in parallel, one runner each
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := experiment.NewRunner(cfg, nil, false)
			rec, err := r.RunOne(context.Background(), fe.scenario, idx, s)
			results[idx] = seedResult{steps: rec.Steps, terminated: rec.Terminated, err: err}
		}(i, seed)
	}
	wg.Wait()

	var total float64
	terminated := 0
	for _, r := range results {
		if r.err != nil {
			// Invalid configurations are never selected
			return math.Inf(1)
		}
		total += float64(r.steps)
		if r.terminated {
			terminated++
		}
	}

	fe.mu.Lock()
	fe.lastTerminated = terminated
	fe.mu.Unlock()

	return total / float64(len(fe.seeds))
}
