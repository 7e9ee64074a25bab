package sim

import (
	"math"

	"cmlsim/internal/dynamics"
)

// Tolerances and step budget for the adaptive integrator. The budget is
// deliberately generous so stiff phases (sharp post-cessation rebound) do
// not fail prematurely.
const (
	relTol       = 1e-6
	absTol       = 1e-8
	maxSteps     = 10000
	minStepScale = 1e-12
)

// Cash-Karp 4(5) embedded Runge-Kutta coefficients.
var (
	ckA = [6][5]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{3.0 / 10, -9.0 / 10, 6.0 / 5},
		{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27},
		{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096},
	}
	ckC  = [6]float64{0, 1.0 / 5, 3.0 / 10, 3.0 / 5, 1, 7.0 / 8}
	ckB5 = [6]float64{37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771}
	ckB4 = [6]float64{2825.0 / 27648, 0, 18575.0 / 48384, 13525.0 / 55296, 277.0 / 14336, 1.0 / 4}
)

type derivFunc func(t float64, s dynamics.State) dynamics.State

// integrate advances the state from t0 to each of the target times in
// order, returning the state at every target. The step budget applies per
// target interval, not to the whole trajectory, so long histories with
// stability-limited step sizes do not exhaust it. It returns false when an
// interval's budget runs out or the solution turns non-finite.
func integrate(f derivFunc, y0 dynamics.State, t0 float64, targets []float64) ([]dynamics.State, bool) {
	out := make([]dynamics.State, 0, len(targets))
	y := y0
	t := t0

	h := 0.1
	for _, target := range targets {
		if target <= t {
			out = append(out, y)
			continue
		}
		stepsLeft := maxSteps
		for t < target {
			if stepsLeft <= 0 {
				return nil, false
			}
			stepsLeft--

			if h > target-t {
				h = target - t
			}
			next, errNorm, ok := step(f, t, y, h)
			if !ok {
				return nil, false
			}
			if errNorm <= 1 {
				t += h
				y = next
				h *= stepGrow(errNorm)
			} else {
				h *= stepShrink(errNorm)
			}
			if h < (target-t0)*minStepScale && t < target {
				return nil, false
			}
		}
		if !y.Finite() {
			return nil, false
		}
		out = append(out, y)
	}
	return out, true
}

// step performs one Cash-Karp trial step of size h and returns the 5th-order
// solution together with the scaled error norm of the embedded pair.
func step(f derivFunc, t float64, y dynamics.State, h float64) (dynamics.State, float64, bool) {
	var k [6]dynamics.State
	k[0] = f(t, y)
	for i := 1; i < 6; i++ {
		probe := y
		for j := 0; j < i; j++ {
			probe = axpy(probe, h*ckA[i][j], k[j])
		}
		k[i] = f(t+ckC[i]*h, probe)
	}

	y5 := y
	y4 := y
	for i := 0; i < 6; i++ {
		y5 = axpy(y5, h*ckB5[i], k[i])
		y4 = axpy(y4, h*ckB4[i], k[i])
	}
	if !y5.Finite() || !y4.Finite() {
		return dynamics.State{}, 0, false
	}

	errNorm := math.Max(
		scaledError(y5.X-y4.X, y.X, y5.X),
		math.Max(
			scaledError(y5.Y-y4.Y, y.Y, y5.Y),
			scaledError(y5.Z-y4.Z, y.Z, y5.Z),
		),
	)
	return y5, errNorm, true
}

func scaledError(diff, y0, y1 float64) float64 {
	scale := absTol + relTol*math.Max(math.Abs(y0), math.Abs(y1))
	return math.Abs(diff) / scale
}

func stepGrow(errNorm float64) float64 {
	if errNorm == 0 {
		return 5.0
	}
	factor := 0.9 * math.Pow(errNorm, -0.2)
	return math.Min(factor, 5.0)
}

func stepShrink(errNorm float64) float64 {
	factor := 0.9 * math.Pow(errNorm, -0.25)
	return math.Max(factor, 0.1)
}

func axpy(s dynamics.State, a float64, d dynamics.State) dynamics.State {
	return dynamics.State{
		X: s.X + a*d.X,
		Y: s.Y + a*d.Y,
		Z: s.Z + a*d.Z,
	}
}
