package storage

import (
	"context"
	"sort"
	"sync"

	"cmlsim/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	results     map[string]model.OptimizationRecord
	history     map[string][]model.GenerationBest
	diagnostics map[string][]model.GenerationDiagnostics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make(map[string]model.OptimizationRecord)
	s.history = make(map[string][]model.GenerationBest)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	return nil
}

func (s *MemoryStore) SaveResult(_ context.Context, record model.OptimizationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record = Stamp(record)
	record.Parameters = record.Parameters.Clone()
	s.results[record.Patient] = record
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, patient string) (model.OptimizationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.results[patient]
	if !ok {
		return model.OptimizationRecord{}, false, nil
	}
	record.Parameters = record.Parameters.Clone()
	return record, true, nil
}

func (s *MemoryStore) ListPatients(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := make([]string, 0, len(s.results))
	for patient := range s.results {
		patients = append(patients, patient)
	}
	sort.Strings(patients)
	return patients, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []model.GenerationBest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationBest, len(history))
	for i, g := range history {
		copied[i] = model.GenerationBest{Parameters: g.Parameters.Clone(), Fitness: g.Fitness}
	}
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]model.GenerationBest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationBest, len(history))
	for i, g := range history {
		copied[i] = model.GenerationBest{Parameters: g.Parameters.Clone(), Fitness: g.Fitness}
	}
	return copied, true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	return copied, true, nil
}
