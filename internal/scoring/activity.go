package scoring

import (
	"oneiros/internal/model"
)

// NewActivityScorer scores each stimulus by the activity of the selected
// units in each target layer, aggregated across layers. This is the scorer
// used for activation-maximization runs.
func NewActivityScorer(targets map[string]UnitSet, aggregate Aggregate) (*Scorer, error) {
	if len(targets) == 0 {
		return nil, model.Configf("at least one target layer is required")
	}

	criterion := func(state model.State) (map[string][]float64, error) {
		if err := checkLayers(targets, state); err != nil {
			return nil, err
		}
		layerScores := make(map[string][]float64, len(targets))
		for layer, units := range targets {
			activations := state[layer]
			if len(activations) > 0 {
				if err := units.Validate(layer, len(activations[0])); err != nil {
					return nil, err
				}
			}
			scores := make([]float64, len(activations))
			for i, row := range activations {
				scores[i] = units.Reduce(row)
			}
			layerScores[layer] = scores
		}
		return layerScores, nil
	}

	return New(criterion, aggregate, targets)
}
