// Package experiment orchestrates the closed optimization loop: codes become
// stimuli, stimuli become subject states, states become scores, and scores
// drive the next population.
package experiment

import (
	"context"

	"oneiros/internal/model"
)

// Generator turns latent codes into a batch of stimuli, interleaving natural
// reference stimuli at the mask's false positions. The returned labels
// describe the natural stimuli only, in interleave order.
type Generator interface {
	Generate(ctx context.Context, codes model.Codes, mask model.Mask) (stimuli [][]float64, labels []int, err error)
}

// Subject evaluates a stimulus batch into per-layer activations. The first
// dimension of every layer equals the batch size, in presentation order.
type Subject interface {
	Observe(ctx context.Context, stimuli [][]float64) (model.State, error)
}

// Renderer is the synthesis half of a Generator: codes in, stimuli out.
type Renderer interface {
	Render(ctx context.Context, codes model.Codes) ([][]float64, error)
}

// NaturalSource supplies reference stimuli in pull-based batches. Sources
// wrap around on exhaustion rather than terminating.
type NaturalSource interface {
	Next(count int) (stimuli [][]float64, labels []int, err error)
}
