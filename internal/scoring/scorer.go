package scoring

import (
	"sort"

	"oneiros/internal/model"
)

// Criterion reduces a subject state to one score per stimulus per layer.
type Criterion func(state model.State) (map[string][]float64, error)

// Aggregate folds per-layer score arrays into a single score per stimulus.
type Aggregate func(layerScores map[string][]float64) []float64

// Scorer composes a per-layer criterion with a cross-layer aggregate. It is
// a pure reader: it never touches optimizer or session state.
type Scorer struct {
	criterion Criterion
	aggregate Aggregate
	targets   map[string]UnitSet
}

// New builds a scorer from explicit criterion and aggregate functions.
func New(criterion Criterion, aggregate Aggregate, targets map[string]UnitSet) (*Scorer, error) {
	if criterion == nil {
		return nil, model.Configf("scoring criterion is required")
	}
	if aggregate == nil {
		aggregate = MeanAggregate
	}
	return &Scorer{criterion: criterion, aggregate: aggregate, targets: targets}, nil
}

// Score computes one scalar per stimulus in the state's batch.
func (s *Scorer) Score(state model.State) ([]float64, error) {
	layerScores, err := s.criterion(state)
	if err != nil {
		return nil, err
	}
	return s.aggregate(layerScores), nil
}

// Targets returns the layer to unit-set mapping the scorer operates on.
func (s *Scorer) Targets() map[string]UnitSet {
	return s.targets
}

// OptimizingUnits counts the units contributing to the score, for reporting.
func (s *Scorer) OptimizingUnits() int {
	total := 0
	for _, units := range s.targets {
		total += units.Count()
	}
	return total
}

// checkLayers verifies every scored layer is present in the state. Extra
// recorded layers are allowed and ignored.
func checkLayers[T any](targets map[string]T, state model.State) error {
	var missing []string
	for layer := range targets {
		if _, ok := state[layer]; !ok {
			missing = append(missing, layer)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &model.MissingLayerError{Missing: missing}
	}
	return nil
}
