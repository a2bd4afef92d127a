package experiment

import (
	"context"

	"oneiros/internal/model"
)

// InterleavingGenerator renders synthetic stimuli from codes and splices
// natural stimuli into the batch at the mask's false positions.
type InterleavingGenerator struct {
	renderer Renderer
	naturals NaturalSource
}

func NewInterleavingGenerator(renderer Renderer, naturals NaturalSource) (*InterleavingGenerator, error) {
	if renderer == nil {
		return nil, model.Configf("renderer is required")
	}
	return &InterleavingGenerator{renderer: renderer, naturals: naturals}, nil
}

func (g *InterleavingGenerator) Generate(ctx context.Context, codes model.Codes, mask model.Mask) ([][]float64, []int, error) {
	if mask.Synthetic() != len(codes) {
		return nil, nil, model.Shapef("mask marks %d synthetic positions for %d codes", mask.Synthetic(), len(codes))
	}
	naturalCount := mask.Natural()
	if naturalCount > 0 && g.naturals == nil {
		return nil, nil, model.Configf("mask requests natural stimuli but no natural source is configured")
	}

	synthetic, err := g.renderer.Render(ctx, codes)
	if err != nil {
		return nil, nil, err
	}
	if len(synthetic) != len(codes) {
		return nil, nil, model.Shapef("renderer produced %d stimuli for %d codes", len(synthetic), len(codes))
	}

	var natural [][]float64
	var labels []int
	if naturalCount > 0 {
		natural, labels, err = g.naturals.Next(naturalCount)
		if err != nil {
			return nil, nil, err
		}
		if len(natural) != naturalCount {
			return nil, nil, model.Shapef("natural source produced %d stimuli, want %d", len(natural), naturalCount)
		}
	}

	stimuli := make([][]float64, 0, len(mask))
	synIdx, natIdx := 0, 0
	for _, isSynthetic := range mask {
		if isSynthetic {
			stimuli = append(stimuli, synthetic[synIdx])
			synIdx++
		} else {
			stimuli = append(stimuli, natural[natIdx])
			natIdx++
		}
	}
	return stimuli, labels, nil
}
