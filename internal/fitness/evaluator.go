// Package fitness scores candidate parameter sets against a patient's
// clinical history. Scores are negative weighted squared errors in log-ratio
// space; closer to zero is better.
package fitness

import (
	"fmt"
	"math"

	"cmlsim/internal/dynamics"
	"cmlsim/internal/model"
	"cmlsim/internal/sim"
)

// FailurePenalty is returned for failed simulations, empty data and
// collapsed weights. The optimizer treats such candidates as maximally
// unfit without any special-casing.
const FailurePenalty = -1e12

// Scheme selects the weighting configuration.
type Scheme string

const (
	// SchemeWeighted is the primary scheme: phase-dependent weights,
	// weighted-sum normalization and an under-constrained penalty.
	SchemeWeighted Scheme = "weighted"
	// SchemeSimple is the two-tier alternative: double weight after
	// cessation, plain mean normalization.
	SchemeSimple Scheme = "simple"
)

type Config struct {
	Scheme         Scheme
	DetectionLimit float64
}

type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) (*Evaluator, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = SchemeWeighted
	}
	switch cfg.Scheme {
	case SchemeWeighted, SchemeSimple:
	default:
		return nil, fmt.Errorf("unsupported fitness scheme: %s", cfg.Scheme)
	}
	if cfg.DetectionLimit <= 0 {
		cfg.DetectionLimit = dynamics.DetectionLimit
	}
	return &Evaluator{cfg: cfg}, nil
}

// Evaluate scores one candidate against the clinical points. It is pure:
// repeated calls with the same inputs yield the same score.
func (e *Evaluator) Evaluate(params model.ParameterSet, points []model.ClinicalPoint) float64 {
	if len(points) == 0 {
		return FailurePenalty
	}

	breakpoints := make([]sim.Breakpoint, len(points))
	for i, p := range points {
		breakpoints[i] = sim.Breakpoint{Month: float64(p.Month), Dose: p.Dose}
	}
	trajectory := sim.Simulate(params, breakpoints)
	if trajectory.Failed {
		return FailurePenalty
	}

	logByMonth := make(map[float64]float64, len(trajectory.Times))
	for i, t := range trajectory.Times {
		y := trajectory.States[i].Y
		if y < 0 || y > dynamics.KY*100 {
			return FailurePenalty
		}
		logByMonth[t] = dynamics.LogRatio(y)
	}

	switch e.cfg.Scheme {
	case SchemeSimple:
		return e.scoreSimple(points, logByMonth)
	default:
		return e.scoreWeighted(points, logByMonth)
	}
}

func (e *Evaluator) scoreWeighted(points []model.ClinicalPoint, logByMonth map[float64]float64) float64 {
	targetND := math.Log10(math.Max(e.cfg.DetectionLimit, 1e-12))

	totalError := 0.0
	weightSum := 0.0
	counted := 0

	for _, p := range points {
		simLog, ok := logByMonth[float64(p.Month)]
		if !ok {
			continue
		}

		base := phaseWeight(p.Dose)

		if !p.Value.Detected {
			if simLog > targetND {
				// The model predicts detectable disease where the
				// assay saw none: heavily penalized.
				w := base * 3.0
				diff := simLog - targetND
				totalError += diff * diff * w
				weightSum += w
			} else {
				// Correct ND prediction: counted for normalization
				// with a small weight, no error added.
				weightSum += base * 0.1
			}
			counted++
			continue
		}

		value := p.Value.Value
		if value <= 0 || value > 100 {
			continue
		}
		clinicalLog := math.Log10(math.Max(value, 1e-12))
		diff := simLog - clinicalLog

		w := base
		if value < 0.01 {
			// Deep remission measurements carry extra weight.
			w *= 1.5
		}
		totalError += diff * diff * w
		weightSum += w
		counted++
	}

	if counted == 0 || weightSum == 0 {
		return FailurePenalty
	}
	normalized := totalError / weightSum
	if counted < 3 {
		normalized *= 5.0 / float64(counted)
	}
	return -normalized
}

func (e *Evaluator) scoreSimple(points []model.ClinicalPoint, logByMonth map[float64]float64) float64 {
	targetND := math.Log10(math.Max(e.cfg.DetectionLimit, 1e-12))

	totalError := 0.0
	counted := 0

	for _, p := range points {
		simLog, ok := logByMonth[float64(p.Month)]
		if !ok {
			continue
		}

		weight := 1.0
		if p.Dose == 0 {
			weight = 2.0
		}

		if !p.Value.Detected {
			if simLog > targetND {
				diff := simLog - targetND
				totalError += diff * diff * weight * 2.0
				counted++
			}
			continue
		}

		value := p.Value.Value
		if value <= 0 || value > 100 {
			continue
		}
		clinicalLog := math.Log10(math.Max(value, 1e-12))
		diff := simLog - clinicalLog
		totalError += diff * diff * weight
		counted++
	}

	if counted == 0 {
		return FailurePenalty
	}
	return -(totalError / float64(counted))
}

// phaseWeight maps the dose at a clinical point to its treatment-phase
// weight. Post-cessation points weigh the most because recurrence after
// stopping therapy is the clinically critical regime.
func phaseWeight(dose float64) float64 {
	switch dose {
	case 1.0:
		return 2.0
	case 0.5:
		return 1.5
	case 0.25:
		return 1.3
	case 0.0:
		return 2.5
	default:
		return 1.0
	}
}
