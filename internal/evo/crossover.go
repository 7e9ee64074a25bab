package evo

import (
	"math"

	"golang.org/x/exp/rand"

	"cmlsim/internal/model"
)

// Crossover blends two parents into two children. Log-scale genes blend in
// log10 space with a mixing coefficient in [0.1, 0.9]; linear genes blend
// directly with a coefficient in [0.3, 0.7]. Each child gets the coefficient
// and its complement. Every result is clamped to the gene's bounds.
func Crossover(rng *rand.Rand, parent1, parent2 model.ParameterSet) (model.ParameterSet, model.ParameterSet) {
	child1 := make(model.ParameterSet, len(parent1))
	child2 := make(model.ParameterSet, len(parent1))

	for _, gene := range model.Genes() {
		spec := Spec(gene)
		v1 := parent1[gene]
		v2 := parent2[gene]

		switch spec.Scale {
		case ScaleLog:
			l1 := math.Log10(v1)
			l2 := math.Log10(v2)
			alpha := 0.1 + rng.Float64()*0.8
			child1[gene] = math.Pow(10, spec.ClampLog(alpha*l1+(1-alpha)*l2))
			child2[gene] = math.Pow(10, spec.ClampLog(alpha*l2+(1-alpha)*l1))
		default:
			alpha := 0.3 + rng.Float64()*0.4
			child1[gene] = spec.Clamp(alpha*v1 + (1-alpha)*v2)
			child2[gene] = spec.Clamp(alpha*v2 + (1-alpha)*v1)
		}
	}
	return child1, child2
}
