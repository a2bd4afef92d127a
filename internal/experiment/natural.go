package experiment

import (
	"oneiros/internal/model"
)

// SliceSource serves natural stimuli from an in-memory collection with
// explicit circular wraparound, replacing iterator-exhaustion control flow
// with a plain cursor.
type SliceSource struct {
	stimuli [][]float64
	labels  []int
	cursor  int
}

func NewSliceSource(stimuli [][]float64, labels []int) (*SliceSource, error) {
	if len(stimuli) == 0 {
		return nil, model.Configf("natural source needs at least one stimulus")
	}
	if labels != nil && len(labels) != len(stimuli) {
		return nil, model.Shapef("got %d labels for %d stimuli", len(labels), len(stimuli))
	}
	if labels == nil {
		labels = make([]int, len(stimuli))
		for i := range labels {
			labels[i] = i
		}
	}
	return &SliceSource{stimuli: stimuli, labels: labels}, nil
}

func (s *SliceSource) Next(count int) ([][]float64, []int, error) {
	if count < 0 {
		return nil, nil, model.Shapef("natural batch count must be >= 0, got %d", count)
	}
	out := make([][]float64, 0, count)
	labels := make([]int, 0, count)
	for len(out) < count {
		out = append(out, append([]float64(nil), s.stimuli[s.cursor]...))
		labels = append(labels, s.labels[s.cursor])
		s.cursor = (s.cursor + 1) % len(s.stimuli)
	}
	return out, labels, nil
}
