package session

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"oneiros/internal/model"
)

// Track is the statistics view over one score history (synthetic or
// natural), recomputed from the full history on every call.
type Track struct {
	BestScore      float64
	BestGeneration int
	BestIndex      int
	CurrentScores  []float64
	MeanPerGen     []float64
	SEMPerGen      []float64
	BestPerGen     []float64
}

// SyntheticStats derives statistics from the synthetic score history.
func (m *Message) SyntheticStats() (Track, error) {
	return scoreStats(m.scoresSyn, "synthetic scores")
}

// NaturalStats derives statistics from the natural score history.
func (m *Message) NaturalStats() (Track, error) {
	return scoreStats(m.scoresNat, "natural scores")
}

// BestCode returns the code behind the globally best synthetic score,
// unravelling the flat argmax into a (generation, index) pair.
func (m *Message) BestCode() ([]float64, error) {
	track, err := m.SyntheticStats()
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), m.codes[track.BestGeneration][track.BestIndex]...), nil
}

// Statistics assembles the serializable run artifact from the history.
func (m *Message) Statistics() (model.RunStatistics, error) {
	track, err := m.SyntheticStats()
	if err != nil {
		return model.RunStatistics{}, err
	}
	out := model.RunStatistics{
		BestScore:         track.BestScore,
		BestGeneration:    track.BestGeneration,
		BestIndex:         track.BestIndex,
		MeanPerGeneration: track.MeanPerGen,
		SEMPerGeneration:  track.SEMPerGen,
		BestPerGeneration: track.BestPerGen,
	}
	if natural, err := m.NaturalStats(); err == nil {
		best := natural.BestScore
		out.BestNaturalScore = &best
	}
	return out, nil
}

func scoreStats(history [][]float64, name string) (Track, error) {
	appended := false
	for _, scores := range history {
		if len(scores) > 0 {
			appended = true
			break
		}
	}
	if !appended {
		return Track{}, &model.HistoryEmptyError{History: name}
	}

	track := Track{
		BestScore:      math.Inf(-1),
		BestGeneration: -1,
		MeanPerGen:     make([]float64, 0, len(history)),
		SEMPerGen:      make([]float64, 0, len(history)),
		BestPerGen:     make([]float64, 0, len(history)),
	}
	for gen, scores := range history {
		if len(scores) == 0 {
			track.MeanPerGen = append(track.MeanPerGen, math.NaN())
			track.SEMPerGen = append(track.SEMPerGen, math.NaN())
			track.BestPerGen = append(track.BestPerGen, math.NaN())
			continue
		}
		genBest := scores[0]
		for idx, score := range scores {
			if score > genBest {
				genBest = score
			}
			if score > track.BestScore {
				track.BestScore = score
				track.BestGeneration = gen
				track.BestIndex = idx
			}
		}
		track.MeanPerGen = append(track.MeanPerGen, stat.Mean(scores, nil))
		track.SEMPerGen = append(track.SEMPerGen, sem(scores))
		track.BestPerGen = append(track.BestPerGen, genBest)
	}
	track.CurrentScores = append([]float64(nil), history[len(history)-1]...)
	return track, nil
}

// sem is the standard error of the mean; zero for a single observation.
func sem(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	return stat.StdDev(scores, nil) / math.Sqrt(float64(len(scores)))
}
