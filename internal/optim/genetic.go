package optim

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"oneiros/internal/model"
)

// GeneticConfig carries the hyperparameters of a GeneticOptimizer. All fields
// are immutable after construction.
type GeneticConfig struct {
	CodeLength     int
	PopulationSize int
	EliteCount     int
	ParentCount    int
	MutationRate   float64
	MutationSize   float64
	Temperature    float64
	Distribution   Distribution
	Loc            float64
	Scale          float64
	Seed           uint64
}

// GeneticOptimizer is a population-based optimizer: the top EliteCount
// individuals survive unchanged, the rest are bred from fitness-weighted
// parent families with gene-wise crossover and then mutated.
type GeneticOptimizer struct {
	cfg     GeneticConfig
	rng     *rand.Rand
	sampler *Sampler
	current model.Codes
}

func NewGeneticOptimizer(cfg GeneticConfig) (*GeneticOptimizer, error) {
	if cfg.CodeLength <= 0 {
		return nil, model.Configf("code length must be > 0, got %d", cfg.CodeLength)
	}
	if cfg.PopulationSize <= 0 {
		return nil, model.Configf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, model.Configf("elite count must be in [0, population size], got %d", cfg.EliteCount)
	}
	if cfg.ParentCount < 1 {
		return nil, model.Configf("parent count must be >= 1, got %d", cfg.ParentCount)
	}
	if cfg.ParentCount > cfg.PopulationSize {
		return nil, model.Configf("parent count %d exceeds population size %d", cfg.ParentCount, cfg.PopulationSize)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, model.Configf("mutation rate must be in [0, 1], got %v", cfg.MutationRate)
	}
	if cfg.MutationSize <= 0 {
		return nil, model.Configf("mutation size must be > 0, got %v", cfg.MutationSize)
	}
	if cfg.Temperature <= 0 {
		return nil, model.Configf("temperature must be > 0, got %v", cfg.Temperature)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	sampler, err := NewSamplerFrom(cfg.Distribution, cfg.Loc, cfg.Scale, rng)
	if err != nil {
		return nil, err
	}

	return &GeneticOptimizer{cfg: cfg, rng: rng, sampler: sampler}, nil
}

func (o *GeneticOptimizer) Name() string {
	return "genetic"
}

func (o *GeneticOptimizer) Init(initial model.Codes) (model.Codes, error) {
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
	} else {
		o.current = o.sampler.Codes(o.cfg.PopulationSize, o.cfg.CodeLength)
	}
	return o.current.Clone(), nil
}

func (o *GeneticOptimizer) Codes() (model.Codes, error) {
	if o.current == nil {
		return nil, ErrNotInitialized
	}
	return o.current.Clone(), nil
}

func (o *GeneticOptimizer) Step(scores []float64) (model.Codes, error) {
	return o.StepTo(scores, len(o.current))
}

func (o *GeneticOptimizer) StepTo(scores []float64, popSize int) (model.Codes, error) {
	if o.current == nil {
		return nil, ErrNotInitialized
	}
	if len(scores) != len(o.current) {
		return nil, model.Shapef("got %d scores for %d individuals", len(scores), len(o.current))
	}
	if popSize <= 0 {
		return nil, model.Shapef("requested population size must be > 0, got %d", popSize)
	}
	if o.cfg.ParentCount > len(o.current) {
		return nil, model.Shapef("parent count %d exceeds current population %d", o.cfg.ParentCount, len(o.current))
	}

	// Elites come from the previous population even when the size changes.
	eliteCount := o.cfg.EliteCount
	if eliteCount > popSize {
		eliteCount = popSize
	}

	// Stable ascending sort; ties keep their original relative order and the
	// elites occupy the head of the next population in ascending score order.
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	next := make(model.Codes, 0, popSize)
	for _, idx := range order[len(order)-eliteCount:] {
		next = append(next, append([]float64(nil), o.current[idx]...))
	}

	fitness := softmaxFitness(scores, o.cfg.Temperature)
	for child := 0; child < popSize-eliteCount; child++ {
		family := o.sampleFamily(fitness)
		next = append(next, o.mutate(o.breed(family)))
	}

	o.current = next
	return next.Clone(), nil
}

// softmaxFitness converts raw scores into selection probabilities. The max
// score is subtracted before exponentiating to keep the exponentials finite.
func softmaxFitness(scores []float64, temperature float64) []float64 {
	max := floats.Max(scores)
	fitness := make([]float64, len(scores))
	for i, score := range scores {
		fitness[i] = math.Exp((score - max) / temperature)
	}
	total := floats.Sum(fitness)
	for i := range fitness {
		fitness[i] /= total
	}
	return fitness
}

// sampleFamily draws ParentCount distinct parent indices weighted by fitness.
// A parent may recur across families but not within one.
func (o *GeneticOptimizer) sampleFamily(fitness []float64) []int {
	weights := append([]float64(nil), fitness...)
	total := floats.Sum(weights)

	family := make([]int, 0, o.cfg.ParentCount)
	for len(family) < o.cfg.ParentCount {
		chosen := -1
		if total > 0 {
			pick := o.rng.Float64() * total
			acc := 0.0
			for i, w := range weights {
				if w == 0 {
					continue
				}
				acc += w
				if pick <= acc {
					chosen = i
					break
				}
			}
		}
		if chosen < 0 {
			// Remaining mass underflowed to zero; fall back to a uniform
			// draw over the parents not yet in the family.
			candidates := make([]int, 0, len(weights))
			for i := range weights {
				if !contains(family, i) {
					candidates = append(candidates, i)
				}
			}
			chosen = candidates[o.rng.IntN(len(candidates))]
		}
		family = append(family, chosen)
		total -= weights[chosen]
		weights[chosen] = 0
	}
	return family
}

// breed assigns every coordinate of the child to one of the family's parents
// uniformly at random.
func (o *GeneticOptimizer) breed(family []int) []float64 {
	child := make([]float64, o.cfg.CodeLength)
	for gene := range child {
		parent := family[o.rng.IntN(len(family))]
		child[gene] = o.current[parent][gene]
	}
	return child
}

// mutate perturbs each coordinate with probability MutationRate by noise from
// the configured distribution scaled by MutationSize.
func (o *GeneticOptimizer) mutate(child []float64) []float64 {
	for gene := range child {
		if o.rng.Float64() < o.cfg.MutationRate {
			child[gene] += o.sampler.Noise(o.cfg.MutationSize)
		}
	}
	return child
}

func contains(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
