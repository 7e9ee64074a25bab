package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cmlsim/internal/model"
)

const resultSuffix = "_optimization.json"

// JSONFileStore keeps one JSON file per patient under a directory, in the
// same shape external tools already read. Run history and diagnostics go
// to sibling files keyed by run ID.
type JSONFileStore struct {
	dir string
}

func NewJSONFileStore(dir string) *JSONFileStore {
	return &JSONFileStore{dir: dir}
}

func (s *JSONFileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("json store directory is required")
	}
	return os.MkdirAll(s.dir, 0o755)
}

// SanitizePatient turns a patient name into its file-name form.
func SanitizePatient(patient string) string {
	return strings.ReplaceAll(patient, " ", "_")
}

func (s *JSONFileStore) resultPath(patient string) string {
	return filepath.Join(s.dir, SanitizePatient(patient)+resultSuffix)
}

func (s *JSONFileStore) SaveResult(_ context.Context, record model.OptimizationRecord) error {
	payload, err := EncodeResult(record)
	if err != nil {
		return err
	}
	return os.WriteFile(s.resultPath(record.Patient), payload, 0o644)
}

func (s *JSONFileStore) GetResult(_ context.Context, patient string) (model.OptimizationRecord, bool, error) {
	payload, err := os.ReadFile(s.resultPath(patient))
	if errors.Is(err, os.ErrNotExist) {
		return model.OptimizationRecord{}, false, nil
	}
	if err != nil {
		return model.OptimizationRecord{}, false, err
	}

	record, err := DecodeResult(payload)
	if err != nil {
		return model.OptimizationRecord{}, false, fmt.Errorf("decode result for %s: %w", patient, err)
	}
	return record, true, nil
}

func (s *JSONFileStore) ListPatients(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+resultSuffix))
	if err != nil {
		return nil, err
	}

	patients := make([]string, 0, len(matches))
	for _, path := range matches {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		record, err := DecodeResult(payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
		patients = append(patients, record.Patient)
	}
	sort.Strings(patients)
	return patients, nil
}

func (s *JSONFileStore) SaveFitnessHistory(_ context.Context, runID string, history []model.GenerationBest) error {
	payload, err := EncodeFitnessHistory(history)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, runID+"_history.json"), payload, 0o644)
}

func (s *JSONFileStore) GetFitnessHistory(_ context.Context, runID string) ([]model.GenerationBest, bool, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, runID+"_history.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	history, err := DecodeFitnessHistory(payload)
	if err != nil {
		return nil, false, err
	}
	return history, true, nil
}

func (s *JSONFileStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	payload, err := EncodeGenerationDiagnostics(diagnostics)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, runID+"_diagnostics.json"), payload, 0o644)
}

func (s *JSONFileStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, runID+"_diagnostics.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	diagnostics, err := DecodeGenerationDiagnostics(payload)
	if err != nil {
		return nil, false, err
	}
	return diagnostics, true, nil
}
