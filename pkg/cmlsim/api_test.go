package cmlsim

import (
	"context"
	"errors"
	"testing"

	"cmlsim/internal/model"
	"cmlsim/internal/project"
	"cmlsim/internal/schedule"
)

const samplePatient = "Christopher Martin Jimenez Osorio"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func fittedParams() model.ParameterSet {
	return model.ParameterSet{
		model.GeneInitLRatio: -1.0,
		model.GeneTKIEffect:  1.5,
		model.GenePXY:        0.01,
		model.GenePYX:        0.01,
		model.GenePY:         0.5,
		model.GeneKZ:         100,
		model.GenePZ:         1000,
	}
}

func TestClientPatientsAndHistory(t *testing.T) {
	client := newTestClient(t)

	patients := client.Patients()
	if len(patients) == 0 {
		t.Fatal("no fixture patients")
	}
	found := false
	for _, p := range patients {
		if p == samplePatient {
			found = true
		}
	}
	if !found {
		t.Fatalf("sample patient missing from %v", patients)
	}

	points, err := client.History(samplePatient)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("empty history for fixture patient")
	}

	if _, err := client.History("nobody"); err == nil {
		t.Fatal("expected error for unknown patient")
	}
}

func TestClientLoadParametersNotOptimized(t *testing.T) {
	client := newTestClient(t)

	_, err := client.LoadParameters(context.Background(), samplePatient)
	if !errors.Is(err, project.ErrNotOptimized) {
		t.Fatalf("error = %v, want ErrNotOptimized", err)
	}
	if Classify(err) != SeverityWarning {
		t.Fatalf("severity = %s, want warning", Classify(err))
	}
}

func TestClientSaveThenProject(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.SaveParameters(ctx, samplePatient, fittedParams(), -0.05); err != nil {
		t.Fatalf("SaveParameters: %v", err)
	}

	loaded, err := client.LoadParameters(ctx, samplePatient)
	if err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}
	if !loaded.Complete() {
		t.Fatal("loaded parameters incomplete")
	}

	points, err := client.Project(ctx, ProjectRequest{Patient: samplePatient})
	if err != nil {
		t.Fatalf("Project with default strategy: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("empty projection")
	}
	for _, p := range points {
		if p.Ratio < 0 || p.Ratio > 1 {
			t.Fatalf("month %d: ratio %g out of range", p.Month, p.Ratio)
		}
	}

	scenarios := []schedule.Scenario{
		{StartMonth: 0, EndMonth: 30, DosePercent: 100},
		{StartMonth: 31, EndMonth: 200, DosePercent: 0},
	}
	withScenarios, err := client.Project(ctx, ProjectRequest{Patient: samplePatient, Scenarios: scenarios})
	if err != nil {
		t.Fatalf("Project with scenarios: %v", err)
	}
	for _, p := range withScenarios {
		want := 0.0
		if p.Month <= 30 {
			want = 1.0
		}
		if p.Dose != want {
			t.Fatalf("month %d: dose %g, want %g", p.Month, p.Dose, want)
		}
	}
}

func TestClientSaveParametersValidation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.SaveParameters(ctx, "", fittedParams(), 0); err == nil {
		t.Fatal("expected error for empty patient")
	}
	incomplete := model.ParameterSet{model.GenePY: 0.5}
	if err := client.SaveParameters(ctx, samplePatient, incomplete, 0); err == nil {
		t.Fatal("expected error for incomplete parameters")
	}
}

func TestClientEvaluateRisk(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.EvaluateRisk(ctx, samplePatient, 0); !errors.Is(err, project.ErrNotOptimized) {
		t.Fatalf("error before fit = %v, want ErrNotOptimized", err)
	}

	if err := client.SaveParameters(ctx, samplePatient, fittedParams(), -0.05); err != nil {
		t.Fatalf("SaveParameters: %v", err)
	}

	summary, err := client.EvaluateRisk(ctx, samplePatient, 0)
	if err != nil {
		t.Fatalf("EvaluateRisk: %v", err)
	}
	if summary.Risk.Score < 0 || summary.Risk.Score > 1 {
		t.Fatalf("risk score %g out of range", summary.Risk.Score)
	}
	if len(summary.Risk.Series) == 0 {
		t.Fatal("empty risk projection")
	}
	switch summary.Risk.Level {
	case project.LevelLow, project.LevelModerate, project.LevelHigh:
	default:
		t.Fatalf("unexpected risk level %q", summary.Risk.Level)
	}
}

func TestClientFitSmallRun(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	var final int
	summary, err := client.Fit(ctx, FitRequest{
		Patient:        samplePatient,
		PopulationSize: 8,
		Generations:    3,
		Restarts:       1,
		Seed:           11,
		Progress:       func(percent int, status string) { final = percent },
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if summary.Patient != samplePatient || summary.RunID == "" {
		t.Fatalf("summary header = %+v", summary)
	}
	if !summary.Parameters.Complete() {
		t.Fatal("fitted parameters incomplete")
	}
	if summary.Fitness <= -1e12 {
		t.Fatalf("fitness %g is the failure sentinel", summary.Fitness)
	}
	if summary.Error != -summary.Fitness {
		t.Fatalf("error %g, want %g", summary.Error, -summary.Fitness)
	}
	if final != 100 {
		t.Fatalf("final progress = %d, want 100", final)
	}

	record, ok, err := client.Result(ctx, samplePatient)
	if err != nil || !ok {
		t.Fatalf("Result: ok=%v err=%v", ok, err)
	}
	if record.Fitness != summary.Fitness {
		t.Fatalf("persisted fitness %g, run fitness %g", record.Fitness, summary.Fitness)
	}

	history, err := client.FitnessHistory(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("FitnessHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d", len(history))
	}
	if _, err := client.Diagnostics(ctx, summary.RunID); err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
}

func TestClientFitCancelled(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fit(ctx, FitRequest{Patient: samplePatient, PopulationSize: 8, Generations: 3, Restarts: 1})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("error = %v, want ErrCancelled", err)
	}
	if Classify(err) != SeverityWarning {
		t.Fatal("cancellation should classify as a warning")
	}
}

func TestClassify(t *testing.T) {
	if Classify(errors.New("disk on fire")) != SeverityFailure {
		t.Fatal("generic error should be a failure")
	}
	if Classify(project.ErrNotOptimized) != SeverityWarning {
		t.Fatal("ErrNotOptimized should be a warning")
	}
	if Classify(schedule.ErrInvalidScenario) != SeverityWarning {
		t.Fatal("ErrInvalidScenario should be a warning")
	}
}
