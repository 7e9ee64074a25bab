package evo

import (
	"math"

	"golang.org/x/exp/rand"

	"cmlsim/internal/model"
)

// Individual is one candidate parameter set with its score for the current
// generation. Fitness is recomputed every generation, never carried over.
type Individual struct {
	Parameters model.ParameterSet
	Fitness    float64
}

// NewPopulation creates size random individuals. Log-scale genes are drawn
// uniformly in log10 space; linear genes uniformly within their practical
// init range.
func NewPopulation(rng *rand.Rand, size int) []model.ParameterSet {
	population := make([]model.ParameterSet, size)
	for i := range population {
		population[i] = randomParameters(rng)
	}
	return population
}

func randomParameters(rng *rand.Rand) model.ParameterSet {
	params := make(model.ParameterSet, len(model.Genes()))
	for _, gene := range model.Genes() {
		spec := Spec(gene)
		switch spec.Scale {
		case ScaleLog:
			lo := math.Log10(spec.InitMin)
			hi := math.Log10(spec.InitMax)
			params[gene] = math.Pow(10, lo+rng.Float64()*(hi-lo))
		default:
			params[gene] = spec.InitMin + rng.Float64()*(spec.InitMax-spec.InitMin)
		}
	}
	return params
}
