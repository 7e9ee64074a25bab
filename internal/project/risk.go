package project

import (
	"cmlsim/internal/dynamics"
	"cmlsim/internal/model"
	"cmlsim/internal/schedule"
	"cmlsim/internal/sim"
)

// MR3Percent is the major-molecular-response boundary in percent.
const MR3Percent = 0.1

// DefaultRiskMonths is how far past the history the treatment-free
// projection runs.
const DefaultRiskMonths = 24

// Level buckets a risk score for presentation.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

// Risk is the outcome of a treatment-free projection: peak BCR-ABL in
// percent, months spent above MR3, and a score in [0, 1] with its bucket.
type Risk struct {
	Score          float64 `json:"risk_score"`
	Level          Level   `json:"risk_level"`
	MaxPercent     float64 `json:"max_bcr_abl"`
	MonthsAboveMR3 int     `json:"months_above_mr3"`
	Series         []Point `json:"projection"`
}

// EvaluateRisk projects the model with the dose cut to zero from the end of
// the clinical history and scores the rebound. The starting state is the
// simulated end-of-history state; if the historical simulation breaks down
// the derived initial conditions are used instead.
func EvaluateRisk(params model.ParameterSet, points []model.ClinicalPoint, projectionMonths int) (Risk, error) {
	lastMonth, _, err := historyTail(params, points)
	if err != nil {
		return Risk{}, err
	}
	if projectionMonths <= 0 {
		projectionMonths = DefaultRiskMonths
	}

	start := dynamics.InitialState(params)
	clinical := sim.Simulate(params, schedule.ClinicalReconstruction(points).Breakpoints())
	if !clinical.Failed && len(clinical.States) > 0 {
		start = clinical.States[len(clinical.States)-1]
	}

	horizon := lastMonth + projectionMonths
	breakpoints := make([]sim.Breakpoint, 0, projectionMonths+1)
	for month := lastMonth; month <= horizon; month++ {
		breakpoints = append(breakpoints, sim.Breakpoint{Month: float64(month), Dose: 0})
	}

	traj := sim.SimulateFrom(start, params, breakpoints)
	if traj.Failed {
		return Risk{}, ErrSimulationFailed
	}

	risk := Risk{Series: make([]Point, 0, len(traj.Times))}
	for i, t := range traj.Times {
		percent := dynamics.LinearRatio(traj.States[i].Y) * 100
		if percent > risk.MaxPercent {
			risk.MaxPercent = percent
		}
		if percent > MR3Percent {
			risk.MonthsAboveMR3++
		}
		risk.Series = append(risk.Series, Point{
			Month: int(t),
			Ratio: percent / 100,
			Dose:  0,
			State: traj.States[i],
		})
	}

	risk.Score = risk.MaxPercent / 10.0
	if risk.Score > 1 {
		risk.Score = 1
	}
	switch {
	case risk.Score > 0.5:
		risk.Level = LevelHigh
	case risk.Score > 0.2:
		risk.Level = LevelModerate
	default:
		risk.Level = LevelLow
	}
	return risk, nil
}
