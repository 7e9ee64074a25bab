package evo

import (
	"context"
	"testing"

	"cmlsim/internal/fitness"
	"cmlsim/internal/model"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	evaluator, err := fitness.NewEvaluator(fitness.Config{})
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return Config{
		Evaluator: evaluator,
		Data: []model.ClinicalPoint{
			{Month: 0, Value: model.Measured(0.28), Dose: 1.0},
			{Month: 3, Value: model.Measured(0.125), Dose: 0.5},
		},
		PopulationSize: 8,
		Generations:    4,
		TournamentSize: 3,
		MutationRate:   0.25,
		Seed:           42,
	}
}

func TestNewOptimizerValidation(t *testing.T) {
	cfg := testConfig(t)

	bad := cfg
	bad.Evaluator = nil
	if _, err := NewOptimizer(bad); err == nil {
		t.Fatal("expected error without evaluator")
	}

	bad = cfg
	bad.Data = nil
	if _, err := NewOptimizer(bad); err == nil {
		t.Fatal("expected error without data")
	}

	bad = cfg
	bad.PopulationSize = 1
	if _, err := NewOptimizer(bad); err == nil {
		t.Fatal("expected error for population of 1")
	}

	bad = cfg
	bad.Generations = 0
	if _, err := NewOptimizer(bad); err == nil {
		t.Fatal("expected error for zero generations")
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	runOnce := func() Result {
		opt, err := NewOptimizer(testConfig(t))
		if err != nil {
			t.Fatalf("NewOptimizer: %v", err)
		}
		result, err := opt.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	a := runOnce()
	b := runOnce()
	if a.BestFitness != b.BestFitness {
		t.Fatalf("same seed produced different fitness: %g vs %g", a.BestFitness, b.BestFitness)
	}
	for _, gene := range model.Genes() {
		if a.Best[gene] != b.Best[gene] {
			t.Fatalf("same seed produced different gene %s", gene)
		}
	}
}

func TestRunHistoryMonotonicUnderElitism(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generations = 8
	opt, err := NewOptimizer(cfg)
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	result, err := opt.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Completed {
		t.Fatal("run should have completed")
	}
	if len(result.History) != cfg.Generations {
		t.Fatalf("history length = %d, want %d", len(result.History), cfg.Generations)
	}
	for i := 1; i < len(result.History); i++ {
		if result.History[i].Fitness < result.History[i-1].Fitness {
			t.Fatalf("elitism violated: generation %d fitness %g < %g",
				i, result.History[i].Fitness, result.History[i-1].Fitness)
		}
	}
	for _, gene := range model.Genes() {
		if !Spec(gene).InBounds(result.Best[gene]) {
			t.Fatalf("best gene %s = %g out of bounds", gene, result.Best[gene])
		}
	}
}

func TestRunProgressOrdering(t *testing.T) {
	cfg := testConfig(t)
	var generations []int
	cfg.Progress = func(generation, total int, best model.GenerationBest) {
		if total != cfg.Generations {
			t.Fatalf("total = %d, want %d", total, cfg.Generations)
		}
		generations = append(generations, generation)
	}
	opt, err := NewOptimizer(cfg)
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	if _, err := opt.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(generations) != cfg.Generations {
		t.Fatalf("progress calls = %d, want %d", len(generations), cfg.Generations)
	}
	for i, g := range generations {
		if g != i {
			t.Fatalf("progress out of order at index %d: %d", i, g)
		}
	}
}

func TestRunStopsImmediately(t *testing.T) {
	cfg := testConfig(t)
	cfg.KeepRunning = func() bool { return false }
	opt, err := NewOptimizer(cfg)
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	result, err := opt.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed {
		t.Fatal("stopped run must not report completion")
	}
	if len(result.History) != 0 {
		t.Fatalf("stopped-before-start run has history of %d", len(result.History))
	}
}

func TestRunStopsMidway(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generations = 10
	remaining := 3
	cfg.KeepRunning = func() bool {
		remaining--
		return remaining >= 0
	}
	opt, err := NewOptimizer(cfg)
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	result, err := opt.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed {
		t.Fatal("interrupted run must not report completion")
	}
	if len(result.History) != 3 {
		t.Fatalf("history length = %d, want 3 completed generations", len(result.History))
	}
	if result.BestFitness != result.History[len(result.History)-1].Fitness {
		t.Fatal("best-so-far must come from the last completed generation")
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt, err := NewOptimizer(testConfig(t))
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	result, err := opt.Run(ctx)
	if err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
	if result.Completed || len(result.History) != 0 {
		t.Fatalf("cancelled-before-start run returned %+v", result)
	}
}
