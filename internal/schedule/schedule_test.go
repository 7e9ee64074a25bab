package schedule

import (
	"testing"
)

func TestTaperingDefaults(t *testing.T) {
	sched := Tapering(120, 1.0, DefaultTaperInterval, DefaultTaperRate)

	cases := []struct {
		month int
		want  float64
	}{
		{0, 1.0},
		{24, 1.0},
		{26, 0.75},
		{51, 0.5},
		{76, 0.25},
		{101, 0.0},
		{120, 0.0},
	}
	for _, c := range cases {
		if got := sched[c.month]; got != c.want {
			t.Fatalf("month %d dose = %g, want %g", c.month, got, c.want)
		}
	}
}

func TestTaperingGapFree(t *testing.T) {
	sched := Tapering(200, 1.0, 25, 0.25)
	for month := 0; month <= 200; month++ {
		if _, ok := sched[month]; !ok {
			t.Fatalf("month %d has no dose", month)
		}
	}
}

func TestTaperingNeverNegative(t *testing.T) {
	sched := Tapering(300, 0.5, 10, 0.3)
	for month, dose := range sched {
		if dose < 0 {
			t.Fatalf("month %d dose %g is negative", month, dose)
		}
	}
}

func TestContinuousHoldsDose(t *testing.T) {
	sched := Continuous(60, 0.5)
	for month := 0; month <= 60; month++ {
		if sched[month] != 0.5 {
			t.Fatalf("month %d dose = %g, want 0.5", month, sched[month])
		}
	}
}

func TestIncreasedGrowsAndCaps(t *testing.T) {
	sched := Increased(120, 0.5)
	if sched[0] != 0.5 {
		t.Fatalf("month 0 dose = %g, want 0.5", sched[0])
	}
	if sched[10] != 0.5*1.1 {
		t.Fatalf("month 10 dose = %g, want %g", sched[10], 0.5*1.1)
	}
	// 0.5 * (1 + 0.01*m) reaches 1.0 at month 100.
	for month := 100; month <= 120; month++ {
		if sched[month] != 1.0 {
			t.Fatalf("month %d dose = %g, want capped 1.0", month, sched[month])
		}
	}
	for month := 1; month <= 120; month++ {
		if sched[month] < sched[month-1] {
			t.Fatalf("dose decreased at month %d", month)
		}
	}
}

func TestForStrategyUnknown(t *testing.T) {
	if _, err := ForStrategy("pulsed", 60, 1.0); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestBreakpointsSorted(t *testing.T) {
	sched := Schedule{10: 0.5, 0: 1.0, 5: 0.75}
	bps := sched.Breakpoints()
	if len(bps) != 3 {
		t.Fatalf("breakpoint count = %d, want 3", len(bps))
	}
	for i := 1; i < len(bps); i++ {
		if bps[i].Month <= bps[i-1].Month {
			t.Fatalf("breakpoints not sorted at %d", i)
		}
	}
	if bps[0].Dose != 1.0 || bps[2].Dose != 0.5 {
		t.Fatalf("doses misassigned: %+v", bps)
	}
}
