package schedule

import (
	"fmt"
	"sort"

	"cmlsim/internal/model"
)

// Scenario is one user-defined projection interval: months StartMonth
// through EndMonth inclusive at DosePercent of standard dose.
type Scenario struct {
	StartMonth  int     `json:"start_month"`
	EndMonth    int     `json:"end_month"`
	DosePercent float64 `json:"dose_percent"`
}

func (s Scenario) Validate() error {
	if s.StartMonth < 0 {
		return fmt.Errorf("%w: start month %d is negative", ErrInvalidScenario, s.StartMonth)
	}
	if s.EndMonth < s.StartMonth {
		return fmt.Errorf("%w: end month %d before start month %d", ErrInvalidScenario, s.EndMonth, s.StartMonth)
	}
	if s.DosePercent < 0 || s.DosePercent > 100 {
		return fmt.Errorf("%w: dose %.1f%% outside [0, 100]", ErrInvalidScenario, s.DosePercent)
	}
	return nil
}

// ValidateScenarios rejects a malformed list before any simulation is
// attempted.
func ValidateScenarios(scenarios []Scenario) error {
	for i, s := range scenarios {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
	}
	return nil
}

// FromScenarios synthesizes a prospective schedule over months 0..horizon.
// For each month the scenario list is scanned in the order given and the
// first interval containing the month (inclusive both ends) wins. Months
// matched by no interval take the reconstructed clinical dose while inside
// the observed range and otherwise carry the most recently assigned dose
// forward.
func FromScenarios(scenarios []Scenario, horizon int, points []model.ClinicalPoint) (Schedule, error) {
	if err := ValidateScenarios(scenarios); err != nil {
		return nil, err
	}

	clinical := ClinicalReconstruction(points)
	lastClinicalMonth := -1
	lastClinicalDose := 0.0
	if len(points) > 0 {
		for _, p := range points {
			if p.Month > lastClinicalMonth {
				lastClinicalMonth = p.Month
				lastClinicalDose = p.Dose
			}
		}
	}

	out := make(Schedule, horizon+1)
	previous := lastClinicalDose
	for month := 0; month <= horizon; month++ {
		assigned := false
		for _, s := range scenarios {
			if s.StartMonth <= month && month <= s.EndMonth {
				out[month] = s.DosePercent / 100.0
				assigned = true
				break
			}
		}
		if !assigned {
			if month <= lastClinicalMonth {
				dose, ok := clinical[month]
				if !ok {
					dose = lastClinicalDose
				}
				out[month] = dose
			} else {
				out[month] = previous
			}
		}
		previous = out[month]
	}
	return out, nil
}

// ClinicalReconstruction rebuilds the retrospective dose schedule from the
// recorded history: the dose at a clinical point holds from that point's
// month up to (but not including) the next point's month; the final
// point's dose holds through the end of the observed range.
func ClinicalReconstruction(points []model.ClinicalPoint) Schedule {
	if len(points) == 0 {
		return Schedule{}
	}

	sorted := append([]model.ClinicalPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Month < sorted[j].Month
	})

	lastMonth := sorted[len(sorted)-1].Month
	out := make(Schedule, lastMonth+1)
	for i, p := range sorted {
		end := lastMonth
		if i < len(sorted)-1 {
			end = sorted[i+1].Month - 1
		}
		for month := p.Month; month <= end; month++ {
			out[month] = p.Dose
		}
	}
	return out
}
