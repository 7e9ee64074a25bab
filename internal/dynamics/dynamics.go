package dynamics

import (
	"math"

	"cmlsim/internal/model"
)

// Fixed physiological constants of the three-compartment CML model.
const (
	// KY is the carrying capacity of the proliferating compartment.
	KY = 1e6
	// M is the immune-mediated kill rate.
	M = 1e-4
	// RZ is the basal immune renewal rate.
	RZ = 200.0
	// AZ is the immune apoptosis rate.
	AZ = 2.0
	// DetectionLimit is the BCR-ABL assay floor as a decimal fraction
	// (0.01%).
	DetectionLimit = 1e-4
)

// State holds the three compartment populations: X quiescent leukemic stem
// cells, Y proliferating leukemic cells, Z immune effector cells.
type State struct {
	X float64
	Y float64
	Z float64
}

// Finite reports whether every compartment is a finite number.
func (s State) Finite() bool {
	return !math.IsNaN(s.X) && !math.IsInf(s.X, 0) &&
		!math.IsNaN(s.Y) && !math.IsInf(s.Y, 0) &&
		!math.IsNaN(s.Z) && !math.IsInf(s.Z, 0)
}

// Derivatives evaluates the model right-hand side at the given state under
// the given dose fraction. The system is autonomous apart from the dose, so
// no time argument is needed. Negative compartment values are clamped to
// zero before evaluation.
func Derivatives(s State, params model.ParameterSet, dose float64) State {
	x := math.Max(s.X, 0)
	y := math.Max(s.Y, 0)
	z := math.Max(s.Z, 0)

	pXY := params[model.GenePXY]
	pYX := params[model.GenePYX]
	pY := params[model.GenePY]
	tki := params[model.GeneTKIEffect]
	kZ := params[model.GeneKZ]
	pZ := params[model.GenePZ]

	// Logistic growth is suppressed far above capacity to avoid the
	// runaway sign flip of the (1 - Y/KY) term.
	proliferation := 0.0
	if y < KY*10 {
		proliferation = pY * y * (1 - y/KY)
	}

	dX := pYX*y - pXY*x
	dY := pXY*x - pYX*y + proliferation - M*z*y - dose*tki*y
	dZ := RZ + pZ*z*y/(kZ*kZ+y*y) - AZ*z

	return State{X: dX, Y: dY, Z: dZ}
}

// InitialState derives the integration start point from initLRATIO and the
// model's steady-state assumptions: Y0 from the initial log-ratio, X0 from
// the X/Y transition equilibrium, Z0 from the tumor-free immune steady
// state. All compartments are floored at 1.0.
func InitialState(params model.ParameterSet) State {
	ratio := math.Pow(10, params[model.GeneInitLRatio])
	ratio = clamp(ratio, 1e-12, 0.999999)

	y0 := 2 * ratio * KY / (1 + ratio)
	y0 = math.Min(y0, KY*0.99)

	pXY := math.Max(params[model.GenePXY], 1e-12)
	pYX := math.Max(params[model.GenePYX], 1e-12)
	x0 := (pYX / pXY) * y0

	z0 := RZ / AZ

	return State{
		X: math.Max(x0, 1.0),
		Y: math.Max(y0, 1.0),
		Z: math.Max(z0, 1.0),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
