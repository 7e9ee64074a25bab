package evo

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"cmlsim/internal/model"
)

// Gaussian mutation magnitudes. initLRATIO gets a reduced deviation because
// the whole trajectory pivots on the initial burden; TKI_effect moves in
// small steps relative to its range.
const (
	logMutationSigma     = 0.2
	initLRatioSigma      = 0.15
	tkiEffectRangeFrac   = 0.05
	defaultRangeFraction = 0.1
)

// Mutator applies per-gene Gaussian noise with a fixed per-gene probability.
type Mutator struct {
	Rate  float64
	rng   *rand.Rand
	noise distuv.Normal
}

func NewMutator(rng *rand.Rand, rate float64) *Mutator {
	if rate <= 0 {
		rate = 0.25
	}
	return &Mutator{
		Rate: rate,
		rng:  rng,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rng,
		},
	}
}

// Mutate returns a mutated copy of the individual; the input is never
// modified. Every mutated value is clamped back into its gene's bounds.
func (m *Mutator) Mutate(params model.ParameterSet) model.ParameterSet {
	mutated := params.Clone()
	for _, gene := range model.Genes() {
		if m.rng.Float64() >= m.Rate {
			continue
		}
		spec := Spec(gene)
		switch {
		case spec.Scale == ScaleLog:
			lv := math.Log10(mutated[gene]) + m.gauss(logMutationSigma)
			mutated[gene] = math.Pow(10, spec.ClampLog(lv))
		case gene == model.GeneInitLRatio:
			mutated[gene] = spec.Clamp(mutated[gene] + m.gauss(initLRatioSigma))
		case gene == model.GeneTKIEffect:
			sigma := (spec.Max - spec.Min) * tkiEffectRangeFrac
			mutated[gene] = spec.Clamp(mutated[gene] + m.gauss(sigma))
		default:
			sigma := (spec.Max - spec.Min) * defaultRangeFraction
			mutated[gene] = spec.Clamp(mutated[gene] + m.gauss(sigma))
		}
	}
	return mutated
}

func (m *Mutator) gauss(sigma float64) float64 {
	return m.noise.Rand() * sigma
}
