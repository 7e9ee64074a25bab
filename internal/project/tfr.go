package project

// TFRMinMonths is the minimum stretch of consecutive months off treatment
// and at or below MR3 that counts as treatment-free remission.
const TFRMinMonths = 12

// TFR summarizes whether a projected series reaches treatment-free
// remission and from which month the qualifying stretch begins.
type TFR struct {
	Achieved  bool `json:"achieved"`
	FromMonth int  `json:"from_month"`
	RunMonths int  `json:"run_months"`
}

// DetectTFR scans a projected series for the longest run of consecutive
// months with zero dose and BCR-ABL at or below MR3. Remission is achieved
// when the longest run reaches TFRMinMonths.
func DetectTFR(series []Point) TFR {
	best := TFR{}
	runStart := 0
	run := 0
	for i, p := range series {
		off := p.Dose == 0 && p.Ratio*100 <= MR3Percent
		if !off {
			run = 0
			continue
		}
		if run == 0 {
			runStart = i
		}
		run++
		if run > best.RunMonths {
			best.RunMonths = run
			best.FromMonth = series[runStart].Month
		}
	}
	best.Achieved = best.RunMonths >= TFRMinMonths
	return best
}
