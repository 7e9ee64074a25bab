// Package project runs what-if projections on fitted parameters: strategy
// and scenario dose schedules simulated past the clinical history, plus
// treatment-free recurrence-risk evaluation.
package project

import (
	"errors"
	"fmt"

	"cmlsim/internal/dynamics"
	"cmlsim/internal/model"
	"cmlsim/internal/schedule"
	"cmlsim/internal/sim"
)

var (
	ErrNotOptimized     = errors.New("patient not yet optimized")
	ErrSimulationFailed = errors.New("projection simulation failed")
)

// DefaultProjectionMonths is the minimum horizon past the last clinical
// point; shorter requests are stretched to it.
const DefaultProjectionMonths = 60

// Point is one projected month for the presentation layer: the linear
// BCR-ABL fraction, the dose in force, and the raw compartment state.
type Point struct {
	Month int            `json:"month"`
	Ratio float64        `json:"bcr_abl"`
	Dose  float64        `json:"dose"`
	State dynamics.State `json:"state"`
}

// WithStrategy simulates the full history followed by a canonical strategy
// schedule out to lastMonth+max(projectionMonths, DefaultProjectionMonths).
func WithStrategy(params model.ParameterSet, points []model.ClinicalPoint, strategy schedule.Strategy, projectionMonths int) ([]Point, error) {
	lastMonth, lastDose, err := historyTail(params, points)
	if err != nil {
		return nil, err
	}

	horizon := horizonEnd(lastMonth, projectionMonths)
	prospective, err := schedule.ForStrategy(strategy, horizon, lastDose)
	if err != nil {
		return nil, err
	}

	merged := overlay(schedule.ClinicalReconstruction(points), prospective, lastMonth, horizon)
	return run(params, merged, horizon)
}

// WithScenarios simulates the full history under an explicit scenario list.
// The scenario resolution rule (first match in list order, clinical
// reconstruction inside the observed range) lives in the schedule package.
func WithScenarios(params model.ParameterSet, points []model.ClinicalPoint, scenarios []schedule.Scenario, projectionMonths int) ([]Point, error) {
	lastMonth, _, err := historyTail(params, points)
	if err != nil {
		return nil, err
	}

	horizon := horizonEnd(lastMonth, projectionMonths)
	sched, err := schedule.FromScenarios(scenarios, horizon, points)
	if err != nil {
		return nil, err
	}
	return run(params, sched, horizon)
}

func historyTail(params model.ParameterSet, points []model.ClinicalPoint) (lastMonth int, lastDose float64, err error) {
	if !params.Complete() {
		return 0, 0, fmt.Errorf("%w: parameter set is incomplete", ErrNotOptimized)
	}
	if len(points) == 0 {
		return 0, 0, errors.New("no clinical data to project from")
	}
	lastMonth = points[0].Month
	lastDose = points[0].Dose
	for _, p := range points[1:] {
		if p.Month >= lastMonth {
			lastMonth = p.Month
			lastDose = p.Dose
		}
	}
	return lastMonth, lastDose, nil
}

func horizonEnd(lastMonth, projectionMonths int) int {
	if projectionMonths < DefaultProjectionMonths {
		projectionMonths = DefaultProjectionMonths
	}
	return lastMonth + projectionMonths
}

// overlay keeps the reconstructed clinical dose through lastMonth and the
// prospective schedule beyond it.
func overlay(clinical, prospective schedule.Schedule, lastMonth, horizon int) schedule.Schedule {
	merged := make(schedule.Schedule, horizon+1)
	for month := 0; month <= horizon; month++ {
		if month <= lastMonth {
			if dose, ok := clinical[month]; ok {
				merged[month] = dose
				continue
			}
		}
		merged[month] = prospective[month]
	}
	return merged
}

func run(params model.ParameterSet, sched schedule.Schedule, horizon int) ([]Point, error) {
	traj := sim.Simulate(params, sched.Breakpoints())
	if traj.Failed {
		return nil, ErrSimulationFailed
	}

	out := make([]Point, 0, horizon+1)
	for i, t := range traj.Times {
		month := int(t)
		out = append(out, Point{
			Month: month,
			Ratio: dynamics.LinearRatio(traj.States[i].Y),
			Dose:  sched[month],
			State: traj.States[i],
		})
	}
	return out, nil
}
