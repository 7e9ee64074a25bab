// Package clinical defines the clinical data contract: BCR-ABL histories
// per patient, percent/ND parsing and input validation.
package clinical

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cmlsim/internal/model"
)

var (
	ErrNoUsableData = errors.New("no usable clinical data")
	ErrInvalidPoint = errors.New("invalid clinical point")
)

// Provider supplies ordered clinical histories per patient.
type Provider interface {
	History(patient string) ([]model.ClinicalPoint, bool)
	Patients() []string
}

// ParseMeasurement reads a table cell: "ND" (any case) is the not-detected
// sentinel, anything else is a BCR-ABL percentage converted to a fraction.
func ParseMeasurement(text string) (model.Measurement, error) {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "ND") {
		return model.NotDetected(), nil
	}
	percent, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return model.Measurement{}, fmt.Errorf("%w: value %q", ErrInvalidPoint, text)
	}
	return model.Measured(percent / 100.0), nil
}

// ParsePoint reads one table row of (month, BCR-ABL %, dose %).
func ParsePoint(monthText, valueText, doseText string) (model.ClinicalPoint, error) {
	month, err := strconv.Atoi(strings.TrimSpace(monthText))
	if err != nil {
		return model.ClinicalPoint{}, fmt.Errorf("%w: month %q", ErrInvalidPoint, monthText)
	}

	value, err := ParseMeasurement(valueText)
	if err != nil {
		return model.ClinicalPoint{}, err
	}

	dose := 0.0
	if trimmed := strings.TrimSpace(doseText); trimmed != "" {
		percent, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return model.ClinicalPoint{}, fmt.Errorf("%w: dose %q", ErrInvalidPoint, doseText)
		}
		dose = percent / 100.0
	}

	point := model.ClinicalPoint{Month: month, Value: value, Dose: dose}
	if err := ValidatePoint(point); err != nil {
		return model.ClinicalPoint{}, err
	}
	return point, nil
}

// ValidatePoint enforces the data contract: month >= 0, measured values in
// (0, 1], doses in [0, 1].
func ValidatePoint(p model.ClinicalPoint) error {
	if p.Month < 0 {
		return fmt.Errorf("%w: negative month %d", ErrInvalidPoint, p.Month)
	}
	if p.Value.Detected && (p.Value.Value <= 0 || p.Value.Value > 1) {
		return fmt.Errorf("%w: value %g outside (0, 1]", ErrInvalidPoint, p.Value.Value)
	}
	if p.Dose < 0 || p.Dose > 1 {
		return fmt.Errorf("%w: dose %g outside [0, 1]", ErrInvalidPoint, p.Dose)
	}
	return nil
}

// ValidateHistory checks every point and requires at least one.
func ValidateHistory(points []model.ClinicalPoint) error {
	if len(points) == 0 {
		return ErrNoUsableData
	}
	for i, p := range points {
		if err := ValidatePoint(p); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}
