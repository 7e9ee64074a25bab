// Package platform hosts optimization runs off the caller's thread: one
// goroutine per run, cumulative progress across restarts, cooperative stop
// at generation boundaries and at-most-once terminal notification.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"cmlsim/internal/evo"
	"cmlsim/internal/fitness"
	"cmlsim/internal/model"
	"cmlsim/internal/storage"
)

// Defaults mirror the canonical fitting configuration.
const (
	DefaultPopulationSize = 60
	DefaultGenerations    = 80
	DefaultTournamentSize = 3
	DefaultMutationRate   = 0.25
	DefaultRestarts       = 3
)

type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateCancelled RunState = "cancelled"
	RunStateFailed    RunState = "failed"
)

// RunRequest configures one background fitting run. Zero numeric fields
// take the package defaults.
type RunRequest struct {
	Patient        string
	Data           []model.ClinicalPoint
	Scheme         fitness.Scheme
	PopulationSize int
	Generations    int
	TournamentSize int
	MutationRate   float64
	Restarts       int
	Seed           uint64
}

// Outcome is the terminal success payload of a run.
type Outcome struct {
	RunID       string
	Patient     string
	Best        model.ParameterSet
	Fitness     float64
	History     []model.GenerationBest
	Diagnostics []model.GenerationDiagnostics
}

// Callbacks receive run notifications. Progress percent is in [0, 100] and
// reaches 100 only on success; between OnSuccess and OnFailure exactly one
// fires per run, and a run cancelled before any restart completes fires
// neither.
type Callbacks struct {
	OnProgress func(percent int, status string)
	OnSuccess  func(outcome Outcome)
	OnFailure  func(err error)
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	stop   atomic.Bool

	mu    sync.Mutex
	state RunState
}

func (r *run) setState(state RunState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// Runner starts, tracks and stops background runs. An optional Store
// receives the winning record and the run's history and diagnostics.
type Runner struct {
	store storage.Store

	mu   sync.Mutex
	runs map[string]*run
}

func NewRunner(store storage.Store) *Runner {
	return &Runner{store: store, runs: make(map[string]*run)}
}

// Start validates the request, launches the run and returns its ID.
// Configuration errors surface here, not through OnFailure.
func (r *Runner) Start(ctx context.Context, req RunRequest, cb Callbacks) (string, error) {
	if req.Patient == "" {
		return "", errors.New("patient is required")
	}

	evaluator, err := fitness.NewEvaluator(fitness.Config{Scheme: req.Scheme})
	if err != nil {
		return "", err
	}

	if req.PopulationSize == 0 {
		req.PopulationSize = DefaultPopulationSize
	}
	if req.Generations == 0 {
		req.Generations = DefaultGenerations
	}
	if req.TournamentSize == 0 {
		req.TournamentSize = DefaultTournamentSize
	}
	if req.MutationRate == 0 {
		req.MutationRate = DefaultMutationRate
	}
	if req.Restarts == 0 {
		req.Restarts = DefaultRestarts
	}

	runID := uuid.NewString()
	task := &run{done: make(chan struct{}), state: RunStateRunning}
	runCtx, cancel := context.WithCancel(ctx)
	task.cancel = cancel

	cfg := evo.Config{
		Evaluator:      evaluator,
		Data:           req.Data,
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		TournamentSize: req.TournamentSize,
		MutationRate:   req.MutationRate,
		Seed:           req.Seed,
		KeepRunning:    func() bool { return !task.stop.Load() },
	}

	progress := func(restart, restarts, stepsDone, totalSteps int, best model.GenerationBest) {
		if cb.OnProgress == nil {
			return
		}
		// Hold 100 back for successful completion.
		percent := stepsDone * 100 / totalSteps
		if percent > 99 {
			percent = 99
		}
		status := fmt.Sprintf("restart %d/%d: best fitness %.4f", restart+1, restarts, best.Fitness)
		cb.OnProgress(percent, status)
	}

	controller, err := evo.NewRestartController(cfg, req.Restarts, progress)
	if err != nil {
		cancel()
		return "", err
	}

	r.mu.Lock()
	r.runs[runID] = task
	r.mu.Unlock()

	go r.execute(runCtx, runID, task, req, controller, cb)
	return runID, nil
}

func (r *Runner) execute(ctx context.Context, runID string, task *run, req RunRequest, controller *evo.RestartController, cb Callbacks) {
	defer close(task.done)
	defer task.cancel()

	result, completed, err := controller.Run(ctx)
	switch {
	case err != nil:
		task.setState(RunStateFailed)
		if cb.OnFailure != nil {
			cb.OnFailure(err)
		}
		return
	case !completed:
		// Cancelled before any restart finished: no terminal payload.
		task.setState(RunStateCancelled)
		return
	}

	outcome := Outcome{
		RunID:       runID,
		Patient:     req.Patient,
		Best:        result.Best,
		Fitness:     result.BestFitness,
		History:     result.History,
		Diagnostics: result.Diagnostics,
	}

	// Persist off the run context: a stop request arriving after the last
	// restart completed must not turn a success into a failure.
	if err := r.persist(context.Background(), outcome); err != nil {
		task.setState(RunStateFailed)
		if cb.OnFailure != nil {
			cb.OnFailure(fmt.Errorf("persist run %s: %w", runID, err))
		}
		return
	}

	task.setState(RunStateCompleted)
	if cb.OnProgress != nil {
		cb.OnProgress(100, "optimization complete")
	}
	if cb.OnSuccess != nil {
		cb.OnSuccess(outcome)
	}
}

func (r *Runner) persist(ctx context.Context, outcome Outcome) error {
	if r.store == nil {
		return nil
	}
	record := model.OptimizationRecord{
		Patient:    outcome.Patient,
		Parameters: outcome.Best,
		Fitness:    outcome.Fitness,
		Error:      -outcome.Fitness,
	}
	if err := r.store.SaveResult(ctx, record); err != nil {
		return err
	}
	if err := r.store.SaveFitnessHistory(ctx, outcome.RunID, outcome.History); err != nil {
		return err
	}
	return r.store.SaveGenerationDiagnostics(ctx, outcome.RunID, outcome.Diagnostics)
}

// Stop requests cooperative cancellation. The run keeps executing until
// its next generation boundary.
func (r *Runner) Stop(runID string) bool {
	r.mu.Lock()
	task, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	task.stop.Store(true)
	task.cancel()
	return true
}

// Wait blocks until the run finishes and reports its terminal state.
func (r *Runner) Wait(runID string) (RunState, bool) {
	r.mu.Lock()
	task, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return "", false
	}
	<-task.done

	task.mu.Lock()
	state := task.state
	task.mu.Unlock()
	return state, true
}

// State reports the current state without blocking.
func (r *Runner) State(runID string) (RunState, bool) {
	r.mu.Lock()
	task, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return "", false
	}

	task.mu.Lock()
	state := task.state
	task.mu.Unlock()
	return state, true
}
