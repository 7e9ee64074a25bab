// Package evo fits the CML model parameters with a genetic algorithm:
// tournament selection, blended crossover, Gaussian mutation and two-slot
// elitism, wrapped in a multi-restart controller.
package evo

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"cmlsim/internal/fitness"
	"cmlsim/internal/model"
)

// ProgressFunc observes one scored generation. generation is zero-based;
// total is the configured generation count for the run.
type ProgressFunc func(generation, total int, best model.GenerationBest)

type Config struct {
	Evaluator      *fitness.Evaluator
	Data           []model.ClinicalPoint
	PopulationSize int
	Generations    int
	TournamentSize int
	MutationRate   float64
	Seed           uint64
	Progress       ProgressFunc
	// KeepRunning is polled once per generation; when it returns false the
	// run stops and returns its best-so-far history. Nil means run to
	// completion.
	KeepRunning func() bool
}

// Result is the outcome of one GA run.
type Result struct {
	Best        model.ParameterSet
	BestFitness float64
	History     []model.GenerationBest
	Diagnostics []model.GenerationDiagnostics
	// Completed is false when the run was stopped before reaching the
	// configured generation count.
	Completed bool
}

type Optimizer struct {
	cfg      Config
	rng      *rand.Rand
	selector TournamentSelector
	mutator  *Mutator
}

func NewOptimizer(cfg Config) (*Optimizer, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("fitness evaluator is required")
	}
	if len(cfg.Data) == 0 {
		return nil, fmt.Errorf("clinical data is required")
	}
	if cfg.PopulationSize <= 1 {
		return nil, fmt.Errorf("population size must be > 1")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.TournamentSize <= 0 {
		cfg.TournamentSize = 3
	}
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = 0.25
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Optimizer{
		cfg:      cfg,
		rng:      rng,
		selector: TournamentSelector{Size: cfg.TournamentSize},
		mutator:  NewMutator(rng, cfg.MutationRate),
	}, nil
}

// Run executes the generation loop: evaluate, select, crossover, mutate,
// elite-replace. Cancellation (context or KeepRunning) is observed only at
// generation boundaries and is not an error; the best-so-far history is
// returned either way.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	population := NewPopulation(o.rng, o.cfg.PopulationSize)
	history := make([]model.GenerationBest, 0, o.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, o.cfg.Generations)

	completed := true
	for gen := 0; gen < o.cfg.Generations; gen++ {
		if o.stopped(ctx) {
			completed = false
			break
		}

		scored := o.evaluate(population)
		best := bestOf(scored)
		history = append(history, model.GenerationBest{
			Parameters: best.Parameters.Clone(),
			Fitness:    best.Fitness,
		})
		diagnostics = append(diagnostics, summarize(scored, gen+1))

		if o.cfg.Progress != nil {
			o.cfg.Progress(gen, o.cfg.Generations, history[len(history)-1])
		}

		pool := o.selector.Pool(o.rng, scored)
		population = o.reproduce(pool)

		// Elitism: the current best survives unmodified in slot 0 and the
		// previous generation's best in slot 1.
		if len(population) >= 1 {
			population[0] = best.Parameters.Clone()
		}
		if len(population) >= 2 && len(history) > 1 {
			population[1] = history[len(history)-2].Parameters.Clone()
		}
	}

	if len(history) == 0 {
		return Result{Completed: false}, nil
	}
	last := history[len(history)-1]
	return Result{
		Best:        last.Parameters.Clone(),
		BestFitness: last.Fitness,
		History:     history,
		Diagnostics: diagnostics,
		Completed:   completed,
	}, nil
}

func (o *Optimizer) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if o.cfg.KeepRunning != nil && !o.cfg.KeepRunning() {
		return true
	}
	return false
}

func (o *Optimizer) evaluate(population []model.ParameterSet) []Individual {
	scored := make([]Individual, len(population))
	for i, params := range population {
		scored[i] = Individual{
			Parameters: params,
			Fitness:    o.cfg.Evaluator.Evaluate(params, o.cfg.Data),
		}
	}
	return scored
}

func (o *Optimizer) reproduce(pool []model.ParameterSet) []model.ParameterSet {
	next := make([]model.ParameterSet, 0, o.cfg.PopulationSize)
	for i := 0; i < len(pool); i += 2 {
		p1 := pool[i]
		p2 := pool[0]
		if i+1 < len(pool) {
			p2 = pool[i+1]
		}
		c1, c2 := Crossover(o.rng, p1, p2)
		next = append(next, o.mutator.Mutate(c1), o.mutator.Mutate(c2))
	}
	if len(next) > o.cfg.PopulationSize {
		next = next[:o.cfg.PopulationSize]
	}
	return next
}

func bestOf(scored []Individual) Individual {
	best := scored[0]
	for _, ind := range scored[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}

func summarize(scored []Individual, generation int) model.GenerationDiagnostics {
	values := make([]float64, len(scored))
	minFitness := scored[0].Fitness
	bestFitness := scored[0].Fitness
	for i, ind := range scored {
		values[i] = ind.Fitness
		if ind.Fitness < minFitness {
			minFitness = ind.Fitness
		}
		if ind.Fitness > bestFitness {
			bestFitness = ind.Fitness
		}
	}
	return model.GenerationDiagnostics{
		Generation:    generation,
		BestFitness:   bestFitness,
		MeanFitness:   stat.Mean(values, nil),
		StdDevFitness: stat.StdDev(values, nil),
		MinFitness:    minFitness,
	}
}
