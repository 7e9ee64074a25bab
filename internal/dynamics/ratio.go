package dynamics

import "math"

// LinearRatio converts a proliferating-cell count into the decimal BCR-ABL
// ratio Y / (Y + 2*(KY - Y)), floored at 1e-12 and capped at 1.0.
func LinearRatio(y float64) float64 {
	const eps = 1e-12
	denom := y + 2*(KY-y)
	if denom <= 0 {
		return 1.0
	}
	ratio := y / denom
	if ratio < eps {
		return eps
	}
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

// LogRatio is log10 of LinearRatio; it is the quantity compared against
// clinical log-percentages.
func LogRatio(y float64) float64 {
	return math.Log10(LinearRatio(y))
}
