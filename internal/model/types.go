package model

// Codes is a batch of flattened latent vectors, one row per individual.
// Row length is fixed for the lifetime of an optimization run.
type Codes [][]float64

// Clone returns a deep copy so callers can hand codes across component
// boundaries without aliasing optimizer-owned state.
func (c Codes) Clone() Codes {
	if c == nil {
		return nil
	}
	out := make(Codes, len(c))
	for i, row := range c {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// State maps a layer name to a batch of activation rows, one row per
// stimulus in presentation order.
type State map[string][][]float64

// Rows returns the batch size of the state, or -1 when layers disagree.
func (s State) Rows() int {
	rows := 0
	first := true
	for _, activations := range s {
		if first {
			rows = len(activations)
			first = false
			continue
		}
		if len(activations) != rows {
			return -1
		}
	}
	return rows
}

// Mask flags each position of an interleaved stimulus batch as synthetic
// (true) or natural (false).
type Mask []bool

// Synthetic returns the number of true entries.
func (m Mask) Synthetic() int {
	n := 0
	for _, synthetic := range m {
		if synthetic {
			n++
		}
	}
	return n
}

// Natural returns the number of false entries.
func (m Mask) Natural() int {
	return len(m) - m.Synthetic()
}

// Split partitions per-stimulus values into the synthetic and natural
// subsequences selected by the mask, preserving order.
func (m Mask) Split(values []float64) (synthetic, natural []float64, err error) {
	if len(values) != len(m) {
		return nil, nil, Shapef("mask length %d does not match value count %d", len(m), len(values))
	}
	synthetic = make([]float64, 0, m.Synthetic())
	natural = make([]float64, 0, m.Natural())
	for i, isSynthetic := range m {
		if isSynthetic {
			synthetic = append(synthetic, values[i])
		} else {
			natural = append(natural, values[i])
		}
	}
	return synthetic, natural, nil
}

// RunRecord describes a single optimization run for persistence and listing.
type RunRecord struct {
	ID             string  `json:"id"`
	Benchmark      string  `json:"benchmark"`
	Optimizer      string  `json:"optimizer"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           uint64  `json:"seed"`
	EliteCount     int     `json:"elite_count"`
	ParentCount    int     `json:"parent_count"`
	MutationRate   float64 `json:"mutation_rate"`
	MutationSize   float64 `json:"mutation_size"`
	Temperature    float64 `json:"temperature"`
	FinalBestScore float64 `json:"final_best_score"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// RunStatistics is the lossless statistics artifact derived from a session
// history: global best plus the per-generation series.
type RunStatistics struct {
	BestScore         float64   `json:"best_score"`
	BestGeneration    int       `json:"best_generation"`
	BestIndex         int       `json:"best_index"`
	MeanPerGeneration []float64 `json:"mean_per_generation"`
	SEMPerGeneration  []float64 `json:"sem_per_generation"`
	BestPerGeneration []float64 `json:"best_per_generation"`
	BestNaturalScore  *float64  `json:"best_natural_score,omitempty"`
}
