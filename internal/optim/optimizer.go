package optim

import (
	"errors"

	"oneiros/internal/model"
)

// ErrNotInitialized is returned by Codes and Step before the first Init.
var ErrNotInitialized = errors.New("optimizer has no codes before init")

// Optimizer owns the current population of latent codes and advances it from
// one scalar score per synthetic individual. Implementations never mutate
// their inputs; the returned population is a copy the caller may keep.
type Optimizer interface {
	Name() string

	// Init validates provided initial codes or samples a fresh population,
	// and becomes the first current population.
	Init(initial model.Codes) (model.Codes, error)

	// Step consumes one score per current individual and returns the next
	// population of the same size.
	Step(scores []float64) (model.Codes, error)

	// StepTo is Step with a caller-chosen size for the next population.
	StepTo(scores []float64, popSize int) (model.Codes, error)

	// Codes returns a copy of the current population, failing with
	// ErrNotInitialized before the first Init.
	Codes() (model.Codes, error)
}
