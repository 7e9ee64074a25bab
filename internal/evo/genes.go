package evo

import (
	"math"

	"cmlsim/internal/model"
)

// ScaleKind tells the genetic operators whether a gene lives on a linear or
// a log10 scale. Log-scale genes are crossed and mutated in log space to
// preserve multiplicative sensitivity.
type ScaleKind int

const (
	ScaleLinear ScaleKind = iota
	ScaleLog
)

// GeneSpec is the search-space definition of one gene: its scale, its hard
// outer bounds and the narrower practical range used for initialization.
// Crossover and mutation clamp against Min/Max; InitMin/InitMax only shape
// the starting population.
type GeneSpec struct {
	Scale   ScaleKind
	Min     float64
	Max     float64
	InitMin float64
	InitMax float64
}

var geneSpecs = map[model.Gene]GeneSpec{
	model.GeneInitLRatio: {Scale: ScaleLinear, Min: -2.0, Max: 0.0, InitMin: -2.0, InitMax: 0.0},
	model.GeneTKIEffect:  {Scale: ScaleLinear, Min: 0.5, Max: 3.0, InitMin: 0.8, InitMax: 2.5},
	model.GenePXY:        {Scale: ScaleLog, Min: 1e-10, Max: 1.0, InitMin: 1e-10, InitMax: 1.0},
	model.GenePYX:        {Scale: ScaleLog, Min: 1e-10, Max: 1.0, InitMin: 1e-10, InitMax: 1.0},
	model.GenePY:         {Scale: ScaleLinear, Min: 0.05, Max: 10.0, InitMin: 0.5, InitMax: 5.0},
	model.GeneKZ:         {Scale: ScaleLog, Min: 10.0, Max: math.Pow(10, 3.5), InitMin: 10.0, InitMax: math.Pow(10, 3.5)},
	model.GenePZ:         {Scale: ScaleLog, Min: 20.0, Max: 1.2649111e7, InitMin: 20.0, InitMax: 1.2649111e7},
}

// Spec returns the search-space definition for a gene.
func Spec(gene model.Gene) GeneSpec {
	return geneSpecs[gene]
}

// Clamp forces a value back inside the gene's outer bounds.
func (s GeneSpec) Clamp(v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// ClampLog clamps a log10-space value against the log10 bounds and returns
// it still in log space.
func (s GeneSpec) ClampLog(lv float64) float64 {
	lo := math.Log10(s.Min)
	hi := math.Log10(s.Max)
	if lv < lo {
		return lo
	}
	if lv > hi {
		return hi
	}
	return lv
}

// InBounds reports whether v lies within the gene's outer bounds inclusive.
func (s GeneSpec) InBounds(v float64) bool {
	return v >= s.Min && v <= s.Max
}
