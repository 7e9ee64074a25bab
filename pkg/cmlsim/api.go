// Package cmlsim is the public face of the fitting and projection engine:
// a Client wiring clinical data, the optimizer, the projector and a
// persistence backend behind plain request/summary structs.
package cmlsim

import (
	"context"
	"errors"
	"fmt"

	"cmlsim/internal/clinical"
	"cmlsim/internal/fitness"
	"cmlsim/internal/model"
	"cmlsim/internal/platform"
	"cmlsim/internal/project"
	"cmlsim/internal/schedule"
	"cmlsim/internal/storage"
)

const defaultDataDir = "results"

// ErrCancelled reports a fitting run stopped before any restart
// completed.
var ErrCancelled = errors.New("optimization cancelled")

// Severity classifies an error for presentation: warnings are caller
// mistakes or normal early exits, failures are engine breakdowns.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityFailure Severity = "failure"
)

// Classify buckets an error from any Client method.
func Classify(err error) Severity {
	switch {
	case errors.Is(err, project.ErrNotOptimized),
		errors.Is(err, clinical.ErrNoUsableData),
		errors.Is(err, clinical.ErrInvalidPoint),
		errors.Is(err, schedule.ErrInvalidScenario),
		errors.Is(err, ErrCancelled):
		return SeverityWarning
	default:
		return SeverityFailure
	}
}

type Options struct {
	StoreKind string
	DataPath  string
	// Provider overrides the built-in patient fixtures.
	Provider clinical.Provider
}

type Client struct {
	store    storage.Store
	runner   *platform.Runner
	provider clinical.Provider
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dataPath := opts.DataPath
	if dataPath == "" {
		dataPath = defaultDataDir
	}
	provider := opts.Provider
	if provider == nil {
		provider = clinical.NewFixtureProvider()
	}

	store, err := storage.NewStore(storeKind, dataPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:    store,
		runner:   platform.NewRunner(store),
		provider: provider,
	}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// FitRequest configures a fitting run for one patient. Zero numeric
// fields take the engine defaults.
type FitRequest struct {
	Patient        string
	Scheme         string
	PopulationSize int
	Generations    int
	TournamentSize int
	MutationRate   float64
	Restarts       int
	Seed           uint64
	// Progress, when set, receives percent and status updates.
	Progress func(percent int, status string)
}

// FitSummary is the outcome of a completed fitting run.
type FitSummary struct {
	RunID      string
	Patient    string
	Parameters model.ParameterSet
	Fitness    float64
	Error      float64
	History    []model.GenerationBest
}

// Fit runs the optimizer to completion for one patient and persists the
// winning record. Cancellation through ctx returns ErrCancelled unless a
// restart had already completed.
func (c *Client) Fit(ctx context.Context, req FitRequest) (FitSummary, error) {
	points, err := c.history(req.Patient)
	if err != nil {
		return FitSummary{}, err
	}

	var (
		outcome platform.Outcome
		runErr  error
		got     bool
	)
	runID, err := c.runner.Start(ctx, platform.RunRequest{
		Patient:        req.Patient,
		Data:           points,
		Scheme:         fitness.Scheme(req.Scheme),
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		TournamentSize: req.TournamentSize,
		MutationRate:   req.MutationRate,
		Restarts:       req.Restarts,
		Seed:           req.Seed,
	}, platform.Callbacks{
		OnProgress: req.Progress,
		OnSuccess:  func(o platform.Outcome) { outcome, got = o, true },
		OnFailure:  func(err error) { runErr = err },
	})
	if err != nil {
		return FitSummary{}, err
	}

	c.runner.Wait(runID)
	if runErr != nil {
		return FitSummary{}, runErr
	}
	if !got {
		return FitSummary{}, ErrCancelled
	}

	return FitSummary{
		RunID:      outcome.RunID,
		Patient:    outcome.Patient,
		Parameters: outcome.Best,
		Fitness:    outcome.Fitness,
		Error:      -outcome.Fitness,
		History:    outcome.History,
	}, nil
}

// ProjectRequest selects either a canonical strategy or an explicit
// scenario list; Scenarios wins when both are set.
type ProjectRequest struct {
	Patient   string
	Strategy  string
	Scenarios []schedule.Scenario
	Months    int
}

// Project simulates the fitted model past the clinical history. It needs
// a persisted optimization for the patient.
func (c *Client) Project(ctx context.Context, req ProjectRequest) ([]project.Point, error) {
	params, err := c.LoadParameters(ctx, req.Patient)
	if err != nil {
		return nil, err
	}
	points, err := c.history(req.Patient)
	if err != nil {
		return nil, err
	}

	if len(req.Scenarios) > 0 {
		return project.WithScenarios(params, points, req.Scenarios, req.Months)
	}
	strategy := schedule.Strategy(req.Strategy)
	if strategy == "" {
		strategy = schedule.StrategyTapering
	}
	return project.WithStrategy(params, points, strategy, req.Months)
}

// RiskSummary pairs the recurrence evaluation with treatment-free
// remission detection over the same series.
type RiskSummary struct {
	Risk project.Risk
	TFR  project.TFR
}

// EvaluateRisk projects a treatment stop from the end of the history and
// scores the rebound.
func (c *Client) EvaluateRisk(ctx context.Context, patient string, months int) (RiskSummary, error) {
	params, err := c.LoadParameters(ctx, patient)
	if err != nil {
		return RiskSummary{}, err
	}
	points, err := c.history(patient)
	if err != nil {
		return RiskSummary{}, err
	}

	risk, err := project.EvaluateRisk(params, points, months)
	if err != nil {
		return RiskSummary{}, err
	}
	return RiskSummary{Risk: risk, TFR: project.DetectTFR(risk.Series)}, nil
}

// Patients lists the known patients from the clinical provider.
func (c *Client) Patients() []string {
	return c.provider.Patients()
}

// History returns the clinical history for one patient.
func (c *Client) History(patient string) ([]model.ClinicalPoint, error) {
	return c.history(patient)
}

// LoadParameters fetches the persisted fitted parameters for a patient.
// A patient with no record yields ErrNotOptimized.
func (c *Client) LoadParameters(ctx context.Context, patient string) (model.ParameterSet, error) {
	record, ok, err := c.store.GetResult(ctx, patient)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", project.ErrNotOptimized, patient)
	}
	return record.Parameters, nil
}

// SaveParameters persists a fitted parameter set directly. The caller is
// responsible for confirming the write with the user.
func (c *Client) SaveParameters(ctx context.Context, patient string, params model.ParameterSet, fitnessValue float64) error {
	if patient == "" {
		return errors.New("patient is required")
	}
	if !params.Complete() {
		return errors.New("parameter set is incomplete")
	}
	return c.store.SaveResult(ctx, model.OptimizationRecord{
		Patient:    patient,
		Parameters: params.Clone(),
		Fitness:    fitnessValue,
		Error:      -fitnessValue,
	})
}

// Result fetches the full persisted optimization record.
func (c *Client) Result(ctx context.Context, patient string) (model.OptimizationRecord, bool, error) {
	return c.store.GetResult(ctx, patient)
}

// FitnessHistory returns the per-generation winners of a past run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]model.GenerationBest, error) {
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history for run %s", runID)
	}
	return history, nil
}

// Diagnostics returns the per-generation population statistics of a past
// run.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no diagnostics for run %s", runID)
	}
	return diagnostics, nil
}

func (c *Client) history(patient string) ([]model.ClinicalPoint, error) {
	points, ok := c.provider.History(patient)
	if !ok || len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", clinical.ErrNoUsableData, patient)
	}
	if err := clinical.ValidateHistory(points); err != nil {
		return nil, err
	}
	return points, nil
}
