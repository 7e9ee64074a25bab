package storage

import (
	"context"

	"cmlsim/internal/model"
)

// Store persists optimization outcomes keyed by patient plus per-run
// fitness history and generation diagnostics keyed by run ID. A missing
// patient record is reported as (zero, false, nil), never as an error:
// absence is the valid "not yet optimized" state.
type Store interface {
	Init(ctx context.Context) error
	SaveResult(ctx context.Context, record model.OptimizationRecord) error
	GetResult(ctx context.Context, patient string) (model.OptimizationRecord, bool, error)
	ListPatients(ctx context.Context) ([]string, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []model.GenerationBest) error
	GetFitnessHistory(ctx context.Context, runID string) ([]model.GenerationBest, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
}
