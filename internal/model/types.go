package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Gene identifies one fitted model parameter.
type Gene string

const (
	GeneInitLRatio Gene = "initLRATIO"
	GeneTKIEffect  Gene = "TKI_effect"
	GenePXY        Gene = "p_XY"
	GenePYX        Gene = "p_YX"
	GenePY         Gene = "p_Y"
	GeneKZ         Gene = "K_Z"
	GenePZ         Gene = "p_Z"
)

// Genes returns all gene identifiers in canonical order.
func Genes() []Gene {
	return []Gene{
		GeneInitLRatio,
		GeneTKIEffect,
		GenePXY,
		GenePYX,
		GenePY,
		GeneKZ,
		GenePZ,
	}
}

// ParameterSet holds one value per gene. It is the unit the optimizer
// evolves and the simulator consumes.
type ParameterSet map[Gene]float64

func (p ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(p))
	for gene, value := range p {
		out[gene] = value
	}
	return out
}

// Complete reports whether every gene has a value.
func (p ParameterSet) Complete() bool {
	for _, gene := range Genes() {
		if _, ok := p[gene]; !ok {
			return false
		}
	}
	return true
}

// Measurement is one BCR-ABL observation: either a measured fraction in
// (0, 1] or the below-assay "not detected" sentinel.
type Measurement struct {
	Detected bool    `json:"detected"`
	Value    float64 `json:"value,omitempty"`
}

func Measured(value float64) Measurement {
	return Measurement{Detected: true, Value: value}
}

func NotDetected() Measurement {
	return Measurement{}
}

// ClinicalPoint is one clinical observation: month since diagnosis, the
// BCR-ABL measurement and the dose fraction in force at that visit.
type ClinicalPoint struct {
	Month int         `json:"month"`
	Value Measurement `json:"value"`
	Dose  float64     `json:"dose"`
}

// OptimizationRecord is the persisted outcome of one fitting run for a
// patient. Error is the negated fitness, kept for display.
type OptimizationRecord struct {
	VersionedRecord
	Patient    string       `json:"patient"`
	Parameters ParameterSet `json:"parameters"`
	Fitness    float64      `json:"fitness"`
	Error      float64      `json:"error"`
}

// GenerationBest records the winning parameter set of one GA generation.
type GenerationBest struct {
	Parameters ParameterSet `json:"parameters"`
	Fitness    float64      `json:"fitness"`
}

// GenerationDiagnostics summarizes one evaluated generation.
type GenerationDiagnostics struct {
	Generation    int     `json:"generation"`
	BestFitness   float64 `json:"best_fitness"`
	MeanFitness   float64 `json:"mean_fitness"`
	StdDevFitness float64 `json:"stddev_fitness"`
	MinFitness    float64 `json:"min_fitness"`
}
