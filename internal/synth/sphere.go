package synth

import (
	"context"

	"oneiros/internal/experiment"
	"oneiros/internal/model"
	"oneiros/internal/optim"
	"oneiros/internal/scoring"
)

func init() {
	Register(NewSphere("sphere", []float64{0.5, -0.25, 1.5, -1.0, 0.75, 0.0, -0.5, 1.25}))
}

// Sphere is the canonical smoke-test landscape: the stimulus is the code
// itself, and the single response unit fires as the negative squared distance
// to a hidden target. The global optimum is the target with activation zero.
type Sphere struct {
	name   string
	target []float64
}

func NewSphere(name string, target []float64) *Sphere {
	return &Sphere{name: name, target: append([]float64(nil), target...)}
}

func (s *Sphere) Name() string { return s.name }

func (s *Sphere) Description() string {
	return "negative squared distance to a hidden target, single response unit"
}

func (s *Sphere) CodeLength() int { return len(s.target) }

// Renderer passes codes through unchanged; the code space is the stimulus
// space.
func (s *Sphere) Renderer() experiment.Renderer {
	return identityRenderer{width: len(s.target)}
}

func (s *Sphere) Subject() experiment.Subject {
	return &sphereSubject{target: s.target}
}

func (s *Sphere) Scorer() (*scoring.Scorer, error) {
	return scoring.NewActivityScorer(map[string]scoring.UnitSet{
		"response": scoring.AllUnits(),
	}, scoring.MeanAggregate)
}

// NaturalSource serves a small fixed pool of stimuli perturbed around the
// target, so interleaved runs have a reference distribution to compare
// against.
func (s *Sphere) NaturalSource(seed uint64) (experiment.NaturalSource, error) {
	sampler, err := optim.NewSampler(optim.DistNormal, 0, 0.5, seed)
	if err != nil {
		return nil, err
	}
	const poolSize = 16
	pool := make([][]float64, poolSize)
	for i := range pool {
		row := make([]float64, len(s.target))
		for j := range row {
			row[j] = s.target[j] + sampler.Rand()
		}
		pool[i] = row
	}
	return experiment.NewSliceSource(pool, nil)
}

type identityRenderer struct {
	width int
}

func (r identityRenderer) Render(_ context.Context, codes model.Codes) ([][]float64, error) {
	out := make([][]float64, len(codes))
	for i, code := range codes {
		if len(code) != r.width {
			return nil, model.Shapef("code %d has length %d, want %d", i, len(code), r.width)
		}
		out[i] = append([]float64(nil), code...)
	}
	return out, nil
}

type sphereSubject struct {
	target []float64
}

func (s *sphereSubject) Observe(_ context.Context, stimuli [][]float64) (model.State, error) {
	rows := make([][]float64, len(stimuli))
	for i, stimulus := range stimuli {
		if len(stimulus) != len(s.target) {
			return nil, model.Shapef("stimulus %d has length %d, want %d", i, len(stimulus), len(s.target))
		}
		total := 0.0
		for j, v := range stimulus {
			d := v - s.target[j]
			total += d * d
		}
		rows[i] = []float64{-total}
	}
	return model.State{"response": rows}, nil
}
