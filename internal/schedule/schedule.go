// Package schedule builds dose schedules: prospective strategy schedules
// and scenario lists for projection, and the retrospective reconstruction
// of the dosing actually recorded in a patient's history. The two
// resolution rules are deliberately different: scenario planning is
// first-match-in-list-order, historical reconstruction is forward-hold.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cmlsim/internal/sim"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Schedule maps every month of a horizon to a dose fraction in [0, 1].
type Schedule map[int]float64

// Breakpoints converts the schedule into the simulator's sorted breakpoint
// list.
func (s Schedule) Breakpoints() []sim.Breakpoint {
	months := make([]int, 0, len(s))
	for month := range s {
		months = append(months, month)
	}
	sort.Ints(months)

	out := make([]sim.Breakpoint, len(months))
	for i, month := range months {
		out[i] = sim.Breakpoint{Month: float64(month), Dose: s[month]}
	}
	return out
}

// Strategy names a canonical projection dosing strategy.
type Strategy string

const (
	// StrategyTapering steps the dose down by a fixed fraction at fixed
	// intervals until it reaches zero.
	StrategyTapering Strategy = "tapering"
	// StrategyContinuous holds the last known clinical dose.
	StrategyContinuous Strategy = "continuous"
	// StrategyIncreased grows the last known dose by 1% per month, capped
	// at full dose.
	StrategyIncreased Strategy = "increased"
)

// Default taper rule: drop a quarter of the starting dose every 25 months.
const (
	DefaultTaperInterval = 25
	DefaultTaperRate     = 0.25
)

// ForStrategy builds the schedule of a canonical strategy over months
// 0..horizon inclusive.
func ForStrategy(strategy Strategy, horizon int, lastDose float64) (Schedule, error) {
	switch strategy {
	case StrategyTapering:
		return Tapering(horizon, lastDose, DefaultTaperInterval, DefaultTaperRate), nil
	case StrategyContinuous:
		return Continuous(horizon, lastDose), nil
	case StrategyIncreased:
		return Increased(horizon, lastDose), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", strategy)
	}
}

// Tapering reduces the starting dose by rate of its initial value every
// interval months until it reaches zero, then holds at zero. Intervals are
// gap-free: each interval's end is the next interval's start.
func Tapering(horizon int, initialDose float64, interval int, rate float64) Schedule {
	if interval <= 0 {
		interval = DefaultTaperInterval
	}
	if rate <= 0 {
		rate = DefaultTaperRate
	}

	maxSteps := int(math.Ceil(1.0 / rate))
	type span struct {
		start, end int
		dose       float64
	}
	intervals := make([]span, 0, maxSteps+1)
	for step := 0; step <= maxSteps; step++ {
		start := step * interval
		end := (step + 1) * interval
		if step == maxSteps {
			end = horizon
		}
		remaining := math.Max(0, 1.0-float64(step)*rate)
		intervals = append(intervals, span{start: start, end: end, dose: remaining * initialDose})
	}

	out := make(Schedule, horizon+1)
	for month := 0; month <= horizon; month++ {
		assigned := false
		for _, iv := range intervals {
			if iv.start <= month && month <= iv.end {
				out[month] = iv.dose
				assigned = true
				break
			}
		}
		if !assigned {
			out[month] = intervals[len(intervals)-1].dose
		}
	}
	return out
}

// Continuous holds one dose across months 0..horizon inclusive.
func Continuous(horizon int, dose float64) Schedule {
	out := make(Schedule, horizon+1)
	for month := 0; month <= horizon; month++ {
		out[month] = dose
	}
	return out
}

// Increased grows the dose by 1% per month from the last known dose,
// capped at full dose.
func Increased(horizon int, lastDose float64) Schedule {
	out := make(Schedule, horizon+1)
	for month := 0; month <= horizon; month++ {
		out[month] = math.Min(1.0, lastDose*(1.0+0.01*float64(month)))
	}
	return out
}
