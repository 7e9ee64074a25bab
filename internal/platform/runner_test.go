package platform

import (
	"context"
	"sync/atomic"
	"testing"

	"cmlsim/internal/fitness"
	"cmlsim/internal/model"
	"cmlsim/internal/storage"
)

func samplePoints() []model.ClinicalPoint {
	return []model.ClinicalPoint{
		{Month: 0, Value: model.Measured(0.28), Dose: 1.0},
		{Month: 3, Value: model.Measured(0.125), Dose: 0.5},
	}
}

func smallRequest() RunRequest {
	return RunRequest{
		Patient:        "Jane Roe",
		Data:           samplePoints(),
		Scheme:         fitness.SchemeWeighted,
		PopulationSize: 8,
		Generations:    3,
		TournamentSize: 3,
		MutationRate:   0.25,
		Restarts:       2,
		Seed:           7,
	}
}

func TestRunnerCompletesAndPersists(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	runner := NewRunner(store)

	var successes atomic.Int32
	var failures atomic.Int32
	var outcome Outcome
	var lastPercent atomic.Int32
	lastPercent.Store(-1)

	runID, err := runner.Start(context.Background(), smallRequest(), Callbacks{
		OnProgress: func(percent int, status string) {
			prev := lastPercent.Load()
			if int32(percent) < prev {
				t.Errorf("progress went backwards: %d after %d", percent, prev)
			}
			if percent < 0 || percent > 100 {
				t.Errorf("progress out of range: %d", percent)
			}
			lastPercent.Store(int32(percent))
		},
		OnSuccess: func(o Outcome) {
			outcome = o
			successes.Add(1)
		},
		OnFailure: func(err error) {
			failures.Add(1)
		},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, ok := runner.Wait(runID)
	if !ok {
		t.Fatal("Wait did not find the run")
	}
	if state != RunStateCompleted {
		t.Fatalf("state = %s, want %s", state, RunStateCompleted)
	}
	if successes.Load() != 1 || failures.Load() != 0 {
		t.Fatalf("successes=%d failures=%d", successes.Load(), failures.Load())
	}
	if lastPercent.Load() != 100 {
		t.Fatalf("final progress = %d, want 100", lastPercent.Load())
	}

	if outcome.RunID != runID || outcome.Patient != "Jane Roe" {
		t.Fatalf("outcome header = %+v", outcome)
	}
	if !outcome.Best.Complete() {
		t.Fatal("winning parameter set is incomplete")
	}
	if len(outcome.History) != 3 {
		t.Fatalf("history length = %d, want generations of winning restart", len(outcome.History))
	}
	if len(outcome.Diagnostics) != len(outcome.History) {
		t.Fatalf("diagnostics length = %d, history = %d", len(outcome.Diagnostics), len(outcome.History))
	}

	record, found, err := store.GetResult(context.Background(), "Jane Roe")
	if err != nil || !found {
		t.Fatalf("GetResult: found=%v err=%v", found, err)
	}
	if record.Fitness != outcome.Fitness || record.Error != -outcome.Fitness {
		t.Fatalf("persisted record = %+v, outcome fitness = %g", record, outcome.Fitness)
	}
	if _, found, _ := store.GetFitnessHistory(context.Background(), runID); !found {
		t.Fatal("fitness history not persisted")
	}
	if _, found, _ := store.GetGenerationDiagnostics(context.Background(), runID); !found {
		t.Fatal("diagnostics not persisted")
	}
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	runner := NewRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var terminal atomic.Int32
	var reached100 atomic.Bool

	runID, err := runner.Start(ctx, smallRequest(), Callbacks{
		OnProgress: func(percent int, status string) {
			if percent == 100 {
				reached100.Store(true)
			}
		},
		OnSuccess: func(Outcome) { terminal.Add(1) },
		OnFailure: func(error) { terminal.Add(1) },
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, ok := runner.Wait(runID)
	if !ok {
		t.Fatal("Wait did not find the run")
	}
	if state != RunStateCancelled {
		t.Fatalf("state = %s, want %s", state, RunStateCancelled)
	}
	if terminal.Load() != 0 {
		t.Fatal("cancelled run fired a terminal callback")
	}
	if reached100.Load() {
		t.Fatal("cancelled run reported 100 percent")
	}
}

func TestRunnerStartValidation(t *testing.T) {
	runner := NewRunner(nil)

	req := smallRequest()
	req.Patient = ""
	if _, err := runner.Start(context.Background(), req, Callbacks{}); err == nil {
		t.Fatal("expected error for empty patient")
	}

	req = smallRequest()
	req.Scheme = "exotic"
	if _, err := runner.Start(context.Background(), req, Callbacks{}); err == nil {
		t.Fatal("expected error for unknown scheme")
	}

	req = smallRequest()
	req.Data = nil
	if _, err := runner.Start(context.Background(), req, Callbacks{}); err == nil {
		t.Fatal("expected error for missing data")
	}
}

func TestRunnerStopUnknownRun(t *testing.T) {
	runner := NewRunner(nil)
	if runner.Stop("no-such-run") {
		t.Fatal("Stop reported success for unknown run")
	}
	if _, ok := runner.State("no-such-run"); ok {
		t.Fatal("State reported an unknown run")
	}
	if _, ok := runner.Wait("no-such-run"); ok {
		t.Fatal("Wait reported an unknown run")
	}
}

func TestRunnerStateWhileRunning(t *testing.T) {
	runner := NewRunner(nil)
	runID, err := runner.Start(context.Background(), smallRequest(), Callbacks{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Running or already finished, either way the run must be known.
	if _, ok := runner.State(runID); !ok {
		t.Fatal("State did not find the run")
	}
	if state, _ := runner.Wait(runID); state != RunStateCompleted {
		t.Fatalf("state = %s, want %s", state, RunStateCompleted)
	}
}
