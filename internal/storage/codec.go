package storage

import (
	"encoding/json"
	"errors"

	"cmlsim/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp fills in the current schema/codec versions on a record before it
// is written.
func Stamp(record model.OptimizationRecord) model.OptimizationRecord {
	record.SchemaVersion = CurrentSchemaVersion
	record.CodecVersion = CurrentCodecVersion
	return record
}

func EncodeResult(record model.OptimizationRecord) ([]byte, error) {
	return json.MarshalIndent(Stamp(record), "", "  ")
}

func DecodeResult(data []byte) (model.OptimizationRecord, error) {
	var record model.OptimizationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.OptimizationRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.OptimizationRecord{}, err
	}
	return record, nil
}

func EncodeFitnessHistory(history []model.GenerationBest) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]model.GenerationBest, error) {
	var history []model.GenerationBest
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
