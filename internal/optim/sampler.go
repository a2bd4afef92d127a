package optim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"oneiros/internal/model"
)

// Distribution names the noise family used for initial codes and mutations.
type Distribution string

const (
	DistNormal   Distribution = "normal"
	DistGumbel   Distribution = "gumbel"
	DistLaplace  Distribution = "laplace"
	DistLogistic Distribution = "logistic"
)

// Sampler draws latent-code coordinates from a configured distribution using
// an explicitly owned random source. Two samplers with different seeds never
// interfere; there is no process-wide RNG state anywhere in the core.
type Sampler struct {
	distr Distribution
	loc   float64
	scale float64
	rng   *rand.Rand
}

// NewSampler validates the distribution name and builds a seeded sampler.
func NewSampler(distr Distribution, loc, scale float64, seed uint64) (*Sampler, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return NewSamplerFrom(distr, loc, scale, rng)
}

// NewSamplerFrom builds a sampler borrowing an existing random source, so an
// optimizer can share one seeded stream between selection and mutation.
func NewSamplerFrom(distr Distribution, loc, scale float64, rng *rand.Rand) (*Sampler, error) {
	if distr == "" {
		distr = DistNormal
	}
	switch distr {
	case DistNormal, DistGumbel, DistLaplace, DistLogistic:
	default:
		return nil, model.Configf("unknown distribution: %q", distr)
	}
	if scale <= 0 {
		return nil, model.Configf("distribution scale must be > 0, got %v", scale)
	}
	if rng == nil {
		return nil, model.Configf("random source is required")
	}
	return &Sampler{distr: distr, loc: loc, scale: scale, rng: rng}, nil
}

// Rand draws a single coordinate with the configured location and scale.
func (s *Sampler) Rand() float64 {
	return s.draw(s.loc, s.scale)
}

// Noise draws zero-located noise with the given scale, as used for mutations.
func (s *Sampler) Noise(scale float64) float64 {
	return s.draw(0, scale)
}

// Codes samples an initial population of count codes of the given length.
func (s *Sampler) Codes(count, length int) model.Codes {
	codes := make(model.Codes, count)
	for i := range codes {
		row := make([]float64, length)
		for j := range row {
			row[j] = s.Rand()
		}
		codes[i] = row
	}
	return codes
}

func (s *Sampler) draw(loc, scale float64) float64 {
	switch s.distr {
	case DistGumbel:
		return distuv.GumbelRight{Mu: loc, Beta: scale, Src: s.rng}.Rand()
	case DistLaplace:
		return distuv.Laplace{Mu: loc, Scale: scale, Src: s.rng}.Rand()
	case DistLogistic:
		// Inverse-CDF sampling; gonum's distuv has no logistic distribution.
		u := s.rng.Float64()
		for u == 0 {
			u = s.rng.Float64()
		}
		return loc + scale*math.Log(u/(1-u))
	default:
		return distuv.Normal{Mu: loc, Sigma: scale, Src: s.rng}.Rand()
	}
}
