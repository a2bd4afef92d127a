package scoring

import "sort"

// MeanAggregate averages per-layer scores elementwise. It is the default
// cross-layer reduction.
func MeanAggregate(layerScores map[string][]float64) []float64 {
	return combine(layerScores, func(total float64, layers int) float64 {
		return total / float64(layers)
	})
}

// SumAggregate sums per-layer scores elementwise.
func SumAggregate(layerScores map[string][]float64) []float64 {
	return combine(layerScores, func(total float64, _ int) float64 {
		return total
	})
}

// WeightedAggregate scales each layer's scores by its weight before summing.
// Layers without a weight contribute nothing.
func WeightedAggregate(weights map[string]float64) Aggregate {
	return func(layerScores map[string][]float64) []float64 {
		var out []float64
		for layer, scores := range layerScores {
			weight, ok := weights[layer]
			if !ok {
				continue
			}
			if out == nil {
				out = make([]float64, len(scores))
			}
			for i, score := range scores {
				out[i] += weight * score
			}
		}
		return out
	}
}

func combine(layerScores map[string][]float64, finish func(total float64, layers int) float64) []float64 {
	layers := make([]string, 0, len(layerScores))
	for layer := range layerScores {
		layers = append(layers, layer)
	}
	sort.Strings(layers)

	var out []float64
	for _, layer := range layers {
		scores := layerScores[layer]
		if out == nil {
			out = make([]float64, len(scores))
		}
		for i, score := range scores {
			out[i] += score
		}
	}
	for i := range out {
		out[i] = finish(out[i], len(layers))
	}
	return out
}
