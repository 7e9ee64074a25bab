package evo

import (
	"golang.org/x/exp/rand"

	"cmlsim/internal/model"
)

// TournamentSelector builds a mating pool by repeated tournaments: sample
// Size distinct individuals, keep the fittest.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

// Pool selects len(scored) parents with replacement across tournaments.
func (s TournamentSelector) Pool(rng *rand.Rand, scored []Individual) []model.ParameterSet {
	size := s.Size
	if size <= 0 {
		size = 3
	}
	if size > len(scored) {
		size = len(scored)
	}

	pool := make([]model.ParameterSet, 0, len(scored))
	for i := 0; i < len(scored); i++ {
		winner := s.runTournament(rng, scored, size)
		pool = append(pool, winner.Parameters.Clone())
	}
	return pool
}

func (s TournamentSelector) runTournament(rng *rand.Rand, scored []Individual, size int) Individual {
	picked := make(map[int]struct{}, size)
	best := Individual{Fitness: 0}
	first := true
	for len(picked) < size {
		idx := rng.Intn(len(scored))
		if _, seen := picked[idx]; seen {
			continue
		}
		picked[idx] = struct{}{}
		if first || scored[idx].Fitness > best.Fitness {
			best = scored[idx]
			first = false
		}
	}
	return best
}
