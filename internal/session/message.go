// Package session holds the shared, append-only record of an optimization
// run. The experiment driver is the only writer; every other component reads
// values or returns new ones.
package session

import (
	"oneiros/internal/model"
)

// Generation is one full loop iteration's worth of history.
type Generation struct {
	Codes           model.Codes
	State           model.State
	SyntheticScores []float64
	NaturalScores   []float64
	Mask            model.Mask
	Labels          []int
}

// Message accumulates per-generation history. Statistics are derived on
// demand from the stored history and never cached, so they cannot diverge
// from it.
type Message struct {
	codes     []model.Codes
	states    []model.State
	scoresSyn [][]float64
	scoresNat [][]float64
	masks     []model.Mask
	labels    [][]int
}

func NewMessage() *Message {
	return &Message{}
}

// Append records one generation. Entries are copied in, so the caller may
// reuse its buffers.
func (m *Message) Append(gen Generation) error {
	if len(gen.Codes) != gen.Mask.Synthetic() {
		return model.Shapef("mask marks %d synthetic positions for %d codes", gen.Mask.Synthetic(), len(gen.Codes))
	}
	if len(gen.SyntheticScores) != gen.Mask.Synthetic() {
		return model.Shapef("got %d synthetic scores for %d synthetic positions", len(gen.SyntheticScores), gen.Mask.Synthetic())
	}
	if len(gen.NaturalScores) != gen.Mask.Natural() {
		return model.Shapef("got %d natural scores for %d natural positions", len(gen.NaturalScores), gen.Mask.Natural())
	}

	m.codes = append(m.codes, gen.Codes.Clone())
	state := make(model.State, len(gen.State))
	for layer, activations := range gen.State {
		rows := make([][]float64, len(activations))
		for i, row := range activations {
			rows[i] = append([]float64(nil), row...)
		}
		state[layer] = rows
	}
	m.states = append(m.states, state)
	m.scoresSyn = append(m.scoresSyn, append([]float64(nil), gen.SyntheticScores...))
	m.scoresNat = append(m.scoresNat, append([]float64(nil), gen.NaturalScores...))
	m.masks = append(m.masks, append(model.Mask(nil), gen.Mask...))
	m.labels = append(m.labels, append([]int(nil), gen.Labels...))
	return nil
}

// Generations reports how many entries have been appended.
func (m *Message) Generations() int {
	return len(m.codes)
}

// Codes returns the latest generation's codes.
func (m *Message) Codes() (model.Codes, error) {
	if len(m.codes) == 0 {
		return nil, &model.HistoryEmptyError{History: "codes"}
	}
	return m.codes[len(m.codes)-1].Clone(), nil
}

// State returns the latest generation's subject state.
func (m *Message) State() (model.State, error) {
	if len(m.states) == 0 {
		return nil, &model.HistoryEmptyError{History: "states"}
	}
	return m.states[len(m.states)-1], nil
}

// SyntheticScores returns the latest generation's synthetic scores.
func (m *Message) SyntheticScores() ([]float64, error) {
	if len(m.scoresSyn) == 0 {
		return nil, &model.HistoryEmptyError{History: "synthetic scores"}
	}
	return append([]float64(nil), m.scoresSyn[len(m.scoresSyn)-1]...), nil
}

// NaturalScores returns the latest generation's natural scores.
func (m *Message) NaturalScores() ([]float64, error) {
	if len(m.scoresNat) == 0 {
		return nil, &model.HistoryEmptyError{History: "natural scores"}
	}
	return append([]float64(nil), m.scoresNat[len(m.scoresNat)-1]...), nil
}

// Mask returns the latest generation's mask.
func (m *Message) Mask() (model.Mask, error) {
	if len(m.masks) == 0 {
		return nil, &model.HistoryEmptyError{History: "masks"}
	}
	return append(model.Mask(nil), m.masks[len(m.masks)-1]...), nil
}

// Labels returns the latest generation's natural-stimulus labels.
func (m *Message) Labels() ([]int, error) {
	if len(m.labels) == 0 {
		return nil, &model.HistoryEmptyError{History: "labels"}
	}
	return append([]int(nil), m.labels[len(m.labels)-1]...), nil
}
