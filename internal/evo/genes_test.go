package evo

import (
	"math"
	"testing"

	"cmlsim/internal/model"
)

func TestEveryGeneHasASpec(t *testing.T) {
	for _, gene := range model.Genes() {
		spec := Spec(gene)
		if spec.Min >= spec.Max {
			t.Fatalf("%s: degenerate bounds [%g, %g]", gene, spec.Min, spec.Max)
		}
		if spec.InitMin < spec.Min || spec.InitMax > spec.Max {
			t.Fatalf("%s: init range [%g, %g] escapes bounds [%g, %g]",
				gene, spec.InitMin, spec.InitMax, spec.Min, spec.Max)
		}
	}
}

func TestClamp(t *testing.T) {
	spec := Spec(model.GeneTKIEffect)
	if got := spec.Clamp(0.1); got != spec.Min {
		t.Fatalf("Clamp below = %g, want %g", got, spec.Min)
	}
	if got := spec.Clamp(5.0); got != spec.Max {
		t.Fatalf("Clamp above = %g, want %g", got, spec.Max)
	}
	if got := spec.Clamp(1.7); got != 1.7 {
		t.Fatalf("Clamp inside = %g, want 1.7", got)
	}
}

func TestClampLog(t *testing.T) {
	spec := Spec(model.GenePXY)
	lo := math.Log10(spec.Min)
	hi := math.Log10(spec.Max)
	if got := spec.ClampLog(lo - 5); got != lo {
		t.Fatalf("ClampLog below = %g, want %g", got, lo)
	}
	if got := spec.ClampLog(hi + 5); got != hi {
		t.Fatalf("ClampLog above = %g, want %g", got, hi)
	}
	if got := spec.ClampLog(-3); got != -3 {
		t.Fatalf("ClampLog inside = %g, want -3", got)
	}
}
