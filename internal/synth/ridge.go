package synth

import (
	"context"
	"math"

	"oneiros/internal/experiment"
	"oneiros/internal/model"
	"oneiros/internal/optim"
	"oneiros/internal/scoring"
)

func init() {
	Register(NewRidge("ridge", []float64{1.0, -0.5, 0.25, 0.75}))
}

// Ridge is a two-layer landscape for multi-layer scoring. The shallow layer
// exposes one unit per coordinate with the coordinate-wise negative squared
// error, while the deep layer exposes a single Gaussian-bump unit peaking at
// the target. Weighted aggregates trade the two layers off against each
// other.
type Ridge struct {
	name   string
	target []float64
}

func NewRidge(name string, target []float64) *Ridge {
	return &Ridge{name: name, target: append([]float64(nil), target...)}
}

func (r *Ridge) Name() string { return r.name }

func (r *Ridge) Description() string {
	return "two-layer landscape: coordinate-wise error units plus a deep bump unit"
}

func (r *Ridge) CodeLength() int { return len(r.target) }

func (r *Ridge) Renderer() experiment.Renderer {
	return identityRenderer{width: len(r.target)}
}

func (r *Ridge) Subject() experiment.Subject {
	return &ridgeSubject{target: r.target}
}

// Scorer weights the deep bump twice as heavily as the shallow error units.
func (r *Ridge) Scorer() (*scoring.Scorer, error) {
	return scoring.NewActivityScorer(map[string]scoring.UnitSet{
		"shallow": scoring.AllUnits(),
		"deep":    scoring.AllUnits(),
	}, scoring.WeightedAggregate(map[string]float64{
		"shallow": 1.0,
		"deep":    2.0,
	}))
}

func (r *Ridge) NaturalSource(seed uint64) (experiment.NaturalSource, error) {
	sampler, err := optim.NewSampler(optim.DistLaplace, 0, 0.25, seed)
	if err != nil {
		return nil, err
	}
	const poolSize = 12
	pool := make([][]float64, poolSize)
	for i := range pool {
		row := make([]float64, len(r.target))
		for j := range row {
			row[j] = r.target[j] + sampler.Rand()
		}
		pool[i] = row
	}
	return experiment.NewSliceSource(pool, nil)
}

type ridgeSubject struct {
	target []float64
}

func (s *ridgeSubject) Observe(_ context.Context, stimuli [][]float64) (model.State, error) {
	shallow := make([][]float64, len(stimuli))
	deep := make([][]float64, len(stimuli))
	for i, stimulus := range stimuli {
		if len(stimulus) != len(s.target) {
			return nil, model.Shapef("stimulus %d has length %d, want %d", i, len(stimulus), len(s.target))
		}
		units := make([]float64, len(stimulus))
		total := 0.0
		for j, v := range stimulus {
			d := v - s.target[j]
			units[j] = -d * d
			total += d * d
		}
		shallow[i] = units
		deep[i] = []float64{math.Exp(-total)}
	}
	return model.State{"shallow": shallow, "deep": deep}, nil
}
