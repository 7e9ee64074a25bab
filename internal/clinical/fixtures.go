package clinical

import (
	"sort"

	"cmlsim/internal/model"
)

// FixtureProvider serves the built-in patient cohorts used for demos and
// regression baselines. Histories are returned as copies.
type FixtureProvider struct {
	histories map[string][]model.ClinicalPoint
}

func NewFixtureProvider() *FixtureProvider {
	return &FixtureProvider{histories: fixtureHistories()}
}

func (p *FixtureProvider) History(patient string) ([]model.ClinicalPoint, bool) {
	points, ok := p.histories[patient]
	if !ok {
		return nil, false
	}
	out := make([]model.ClinicalPoint, len(points))
	copy(out, points)
	return out, true
}

func (p *FixtureProvider) Patients() []string {
	names := make([]string, 0, len(p.histories))
	for name := range p.histories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func pt(month int, value, dose float64) model.ClinicalPoint {
	return model.ClinicalPoint{Month: month, Value: model.Measured(value), Dose: dose}
}

func nd(month int, dose float64) model.ClinicalPoint {
	return model.ClinicalPoint{Month: month, Value: model.NotDetected(), Dose: dose}
}

func fixtureHistories() map[string][]model.ClinicalPoint {
	return map[string][]model.ClinicalPoint{
		"Christopher Martin Jimenez Osorio": {
			pt(0, 0.28, 1.0), pt(3, 0.125, 0.5),
		},

		// Strong immune control: deep remission holds after stopping the drug.
		"Paciente Clase B (TFR Exitosa)": {
			pt(0, 1.0, 1.0),
			pt(3, 0.10, 1.0),
			pt(6, 0.01, 1.0),
			pt(12, 0.001, 1.0),
			pt(18, 0.0001, 1.0),
			pt(24, 0.00003, 1.0),
			nd(30, 1.0),
			pt(36, 0.00002, 1.0),
			pt(39, 0.000025, 0.5),
			pt(42, 0.00002, 0.5),
			nd(45, 0.5),
			pt(48, 0.00003, 0.5),
			pt(50, 0.00005, 0.0),
			pt(52, 0.00008, 0.0),
			pt(56, 0.00006, 0.0),
			pt(60, 0.00005, 0.0),
			pt(72, 0.00004, 0.0),
		},

		// Insufficient immune response: relapse starts during the taper and
		// accelerates once the dose reaches zero.
		"Paciente Clase A (Recurrencia)": {
			pt(0, 0.95, 1.0),
			pt(3, 0.15, 1.0),
			pt(6, 0.025, 1.0),
			pt(12, 0.002, 1.0),
			pt(24, 0.00008, 1.0),
			pt(36, 0.00005, 1.0),
			pt(39, 0.00015, 0.5),
			pt(42, 0.00035, 0.5),
			pt(45, 0.0006, 0.5),
			pt(48, 0.0009, 0.5),
			pt(50, 0.005, 0.0),
			pt(52, 0.02, 0.0),
			pt(54, 0.10, 0.0),
		},

		// Borderline immune capacity: stable through the taper, slow climb
		// after stopping, late relapse above the 0.1% threshold.
		"Paciente Clase C (Recurrencia Tardía)": {
			pt(0, 1.0, 1.0),
			pt(6, 0.005, 1.0),
			pt(12, 0.0005, 1.0),
			pt(24, 0.00004, 1.0),
			pt(36, 0.00002, 1.0),
			pt(40, 0.00002, 0.5),
			pt(44, 0.00003, 0.5),
			pt(48, 0.00003, 0.5),
			pt(50, 0.0001, 0.0),
			pt(54, 0.0004, 0.0),
			pt(58, 0.0009, 0.0),
			pt(60, 0.0015, 0.0),
			pt(64, 0.005, 0.0),
		},
	}
}
