package optim

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"oneiros/internal/model"
)

// CEMConfig configures a cross-entropy-method optimizer.
type CEMConfig struct {
	CodeLength     int
	PopulationSize int
	// EliteFraction is the top share of the population the search
	// distribution is refit on. Defaults to 0.25.
	EliteFraction float64
	// MinSigma keeps the per-coordinate spread from collapsing to zero.
	// Defaults to 1e-3.
	MinSigma float64
	Loc      float64
	Scale    float64
	Seed     uint64
}

// CEMOptimizer maintains a diagonal Gaussian search distribution and refits
// its per-coordinate mean and spread on the elite quantile each step. It is
// the distribution-based alternative to GeneticOptimizer behind the same
// Optimizer contract.
type CEMOptimizer struct {
	cfg     CEMConfig
	rng     *rand.Rand
	mean    []float64
	sigma   []float64
	current model.Codes
}

func NewCEMOptimizer(cfg CEMConfig) (*CEMOptimizer, error) {
	if cfg.CodeLength <= 0 {
		return nil, model.Configf("code length must be > 0, got %d", cfg.CodeLength)
	}
	if cfg.PopulationSize <= 1 {
		return nil, model.Configf("population size must be > 1, got %d", cfg.PopulationSize)
	}
	if cfg.EliteFraction < 0 || cfg.EliteFraction > 1 {
		return nil, model.Configf("elite fraction must be in [0, 1], got %v", cfg.EliteFraction)
	}
	if cfg.EliteFraction == 0 {
		cfg.EliteFraction = 0.25
	}
	if cfg.MinSigma < 0 {
		return nil, model.Configf("min sigma must be >= 0, got %v", cfg.MinSigma)
	}
	if cfg.MinSigma == 0 {
		cfg.MinSigma = 1e-3
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}

	mean := make([]float64, cfg.CodeLength)
	sigma := make([]float64, cfg.CodeLength)
	for i := range mean {
		mean[i] = cfg.Loc
		sigma[i] = cfg.Scale
	}
	return &CEMOptimizer{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		mean:  mean,
		sigma: sigma,
	}, nil
}

func (o *CEMOptimizer) Name() string {
	return "cem"
}

func (o *CEMOptimizer) Init(initial model.Codes) (model.Codes, error) {
	if initial != nil {
		if len(initial) != o.cfg.PopulationSize {
			return nil, model.Shapef("initial codes count %d does not match population size %d", len(initial), o.cfg.PopulationSize)
		}
		for i, row := range initial {
			if len(row) != o.cfg.CodeLength {
				return nil, model.Shapef("initial code %d has length %d, want %d", i, len(row), o.cfg.CodeLength)
			}
		}
		o.current = initial.Clone()
		o.refit(o.current)
	} else {
		o.current = o.sample(o.cfg.PopulationSize)
	}
	return o.current.Clone(), nil
}

func (o *CEMOptimizer) Codes() (model.Codes, error) {
	if o.current == nil {
		return nil, ErrNotInitialized
	}
	return o.current.Clone(), nil
}

func (o *CEMOptimizer) Step(scores []float64) (model.Codes, error) {
	return o.StepTo(scores, len(o.current))
}

func (o *CEMOptimizer) StepTo(scores []float64, popSize int) (model.Codes, error) {
	if o.current == nil {
		return nil, ErrNotInitialized
	}
	if len(scores) != len(o.current) {
		return nil, model.Shapef("got %d scores for %d individuals", len(scores), len(o.current))
	}
	if popSize <= 0 {
		return nil, model.Shapef("requested population size must be > 0, got %d", popSize)
	}

	eliteCount := int(float64(len(o.current)) * o.cfg.EliteFraction)
	if eliteCount < 2 {
		eliteCount = 2
	}
	if eliteCount > len(o.current) {
		eliteCount = len(o.current)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	elites := make(model.Codes, 0, eliteCount)
	for _, idx := range order[:eliteCount] {
		elites = append(elites, o.current[idx])
	}
	o.refit(elites)

	o.current = o.sample(popSize)
	return o.current.Clone(), nil
}

func (o *CEMOptimizer) refit(codes model.Codes) {
	column := make([]float64, len(codes))
	for gene := 0; gene < o.cfg.CodeLength; gene++ {
		for i, row := range codes {
			column[i] = row[gene]
		}
		o.mean[gene] = stat.Mean(column, nil)
		sigma := stat.StdDev(column, nil)
		if sigma < o.cfg.MinSigma {
			sigma = o.cfg.MinSigma
		}
		o.sigma[gene] = sigma
	}
}

func (o *CEMOptimizer) sample(count int) model.Codes {
	codes := make(model.Codes, count)
	for i := range codes {
		row := make([]float64, o.cfg.CodeLength)
		for gene := range row {
			row[gene] = distuv.Normal{Mu: o.mean[gene], Sigma: o.sigma[gene], Src: o.rng}.Rand()
		}
		codes[i] = row
	}
	return codes
}
