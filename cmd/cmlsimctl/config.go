package main

import (
	"encoding/json"
	"os"

	"cmlsim/internal/schedule"
	"cmlsim/pkg/cmlsim"
)

// loadFitRequestFromConfig reads a fit request from a JSON file with
// tolerant per-key extraction; unknown keys are ignored and flags can
// still override any field.
func loadFitRequestFromConfig(path string) (cmlsim.FitRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cmlsim.FitRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return cmlsim.FitRequest{}, err
	}

	var req cmlsim.FitRequest
	if v, ok := asString(raw["patient"]); ok {
		req.Patient = v
	}
	if v, ok := asString(raw["scheme"]); ok {
		req.Scheme = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.PopulationSize = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["tournament"]); ok {
		req.TournamentSize = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if v, ok := asInt(raw["restarts"]); ok {
		req.Restarts = v
	}
	if v, ok := asUint64(raw["seed"]); ok {
		req.Seed = v
	}
	return req, nil
}

func loadScenarios(path string) ([]schedule.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []schedule.Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case int:
		return uint64(x), true
	case float64:
		return uint64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
