package scoring

import (
	"oneiros/internal/model"
)

// NewMSEScorer scores each stimulus by the negative mean squared error
// between its activations and a fixed per-layer target, so that maximizing
// the score drives the state towards the target.
func NewMSEScorer(target map[string][]float64, aggregate Aggregate) (*Scorer, error) {
	if len(target) == 0 {
		return nil, model.Configf("at least one target layer is required")
	}

	targets := make(map[string]UnitSet, len(target))
	for layer, want := range target {
		set, err := UnitRange(0, len(want))
		if err != nil {
			return nil, err
		}
		targets[layer] = set
	}

	criterion := func(state model.State) (map[string][]float64, error) {
		if err := checkLayers(target, state); err != nil {
			return nil, err
		}
		layerScores := make(map[string][]float64, len(target))
		for layer, want := range target {
			activations := state[layer]
			scores := make([]float64, len(activations))
			for i, row := range activations {
				if len(row) != len(want) {
					return nil, model.Shapef("layer %s row has %d units, target has %d", layer, len(row), len(want))
				}
				total := 0.0
				for j, v := range row {
					d := v - want[j]
					total += d * d
				}
				scores[i] = -total / float64(len(want))
			}
			layerScores[layer] = scores
		}
		return layerScores, nil
	}

	return New(criterion, aggregate, targets)
}
