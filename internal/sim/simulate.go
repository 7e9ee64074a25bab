// Package sim integrates the CML model across a piecewise-constant dose
// schedule and reports the compartment trajectory at the schedule's
// breakpoint times.
package sim

import (
	"sort"

	"cmlsim/internal/dynamics"
	"cmlsim/internal/model"
)

// Breakpoint is one (time, dose fraction) change point of the schedule.
type Breakpoint struct {
	Month float64
	Dose  float64
}

// Trajectory is the simulated state at each requested time. Failed marks
// integrator breakdown (step budget exhausted or non-finite output); a
// failed trajectory carries no states.
type Trajectory struct {
	Times  []float64
	States []dynamics.State
	Failed bool
}

// StateAt returns the state recorded for the given month.
func (tr Trajectory) StateAt(month float64) (dynamics.State, bool) {
	for i, t := range tr.Times {
		if t == month {
			return tr.States[i], true
		}
	}
	return dynamics.State{}, false
}

// Simulate integrates the model from the derived initial state through all
// breakpoint times. Breakpoints need not be sorted; the breakpoint times
// themselves form the evaluation grid. The dose in force at time t is the
// dose of the latest breakpoint at or before t, defaulting to full dose
// before the first breakpoint. Failure is reported on the trajectory, never
// panicked or returned as an error.
func Simulate(params model.ParameterSet, breakpoints []Breakpoint) Trajectory {
	return SimulateFrom(dynamics.InitialState(params), params, breakpoints)
}

// SimulateFrom integrates from an explicit starting state instead of the
// derived initial conditions. The starting state is taken to hold at the
// earliest breakpoint time.
func SimulateFrom(y0 dynamics.State, params model.ParameterSet, breakpoints []Breakpoint) Trajectory {
	if len(breakpoints) == 0 {
		return Trajectory{Failed: true}
	}

	sorted := append([]Breakpoint(nil), breakpoints...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Month < sorted[j].Month
	})

	times := make([]float64, len(sorted))
	for i, bp := range sorted {
		times[i] = bp.Month
	}

	deriv := func(t float64, s dynamics.State) dynamics.State {
		return dynamics.Derivatives(s, params, doseAt(sorted, t))
	}

	start := times[0]

	states, ok := integrate(deriv, y0, start, times)
	if !ok {
		return Trajectory{Failed: true}
	}
	for _, s := range states {
		if !s.Finite() {
			return Trajectory{Failed: true}
		}
	}
	return Trajectory{Times: times, States: states}
}

// doseAt resolves the step-function dose: the latest breakpoint whose time
// is <= t wins, 1.0 before the first breakpoint.
func doseAt(sorted []Breakpoint, t float64) float64 {
	dose := 1.0
	for _, bp := range sorted {
		if bp.Month <= t {
			dose = bp.Dose
		} else {
			break
		}
	}
	return dose
}
