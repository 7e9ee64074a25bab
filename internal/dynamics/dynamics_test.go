package dynamics

import (
	"math"
	"testing"

	"cmlsim/internal/model"
)

func benignParams() model.ParameterSet {
	return model.ParameterSet{
		model.GeneInitLRatio: -1.0,
		model.GeneTKIEffect:  1.5,
		model.GenePXY:        0.01,
		model.GenePYX:        0.01,
		model.GenePY:         0.5,
		model.GeneKZ:         100,
		model.GenePZ:         1000,
	}
}

func TestInitialStateFloorsAndCaps(t *testing.T) {
	s := InitialState(benignParams())
	if s.X < 1 || s.Y < 1 || s.Z < 1 {
		t.Fatalf("compartments must be floored at 1, got %+v", s)
	}
	if s.Y > 0.99*KY {
		t.Fatalf("Y0 must be capped below carrying capacity, got %g", s.Y)
	}
	if s.Z != RZ/AZ {
		t.Fatalf("Z0 = %g, want %g", s.Z, RZ/AZ)
	}
}

func TestInitialStateBurdenRatio(t *testing.T) {
	params := benignParams()
	params[model.GeneInitLRatio] = -1.0
	s := InitialState(params)

	// R = 10^-1 gives Y0 = 2*R*KY/(1+R).
	want := 2 * 0.1 * KY / 1.1
	if math.Abs(s.Y-want) > 1e-6*want {
		t.Fatalf("Y0 = %g, want %g", s.Y, want)
	}
}

func TestDerivativesClampNegativeState(t *testing.T) {
	params := benignParams()
	a := Derivatives(State{X: -5, Y: -5, Z: -5}, params, 1.0)
	b := Derivatives(State{X: 0, Y: 0, Z: 0}, params, 1.0)
	if a != b {
		t.Fatalf("negative compartments must be treated as zero: %+v vs %+v", a, b)
	}
}

func TestDerivativesConserveExchange(t *testing.T) {
	params := benignParams()
	params[model.GenePY] = 0 // isolate the X<->Y exchange
	params[model.GeneTKIEffect] = 0.5

	s := State{X: 100, Y: 200, Z: 0}
	d := Derivatives(s, params, 0)
	pXY := params[model.GenePXY]
	pYX := params[model.GenePYX]
	wantDX := pYX*s.Y - pXY*s.X
	if math.Abs(d.X-wantDX) > 1e-12 {
		t.Fatalf("dX = %g, want %g", d.X, wantDX)
	}
}

func TestLinearRatioMonotonic(t *testing.T) {
	prev := -1.0
	for y := 0.0; y <= KY; y += KY / 1000 {
		r := LinearRatio(y)
		if r < prev {
			t.Fatalf("ratio not monotonic at y=%g: %g < %g", y, r, prev)
		}
		if r < 0 || r > 1 {
			t.Fatalf("ratio out of range at y=%g: %g", y, r)
		}
		prev = r
	}
}

func TestLogRatioIsLog10OfLinear(t *testing.T) {
	for _, y := range []float64{1, 100, 1e4, 5e5, KY} {
		want := math.Log10(LinearRatio(y))
		if got := LogRatio(y); got != want {
			t.Fatalf("LogRatio(%g) = %g, want %g", y, got, want)
		}
	}
}

func TestLinearRatioDegenerateDenominator(t *testing.T) {
	// y > 2*KY makes the denominator non-positive.
	if got := LinearRatio(2*KY + 1); got != 1.0 {
		t.Fatalf("degenerate denominator ratio = %g, want 1.0", got)
	}
}
