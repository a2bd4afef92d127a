package experiment

import (
	"math/rand/v2"

	"oneiros/internal/model"
)

// MaskBuilder expands a base synthetic/natural template to cover one
// generation's batch. The template is repeated once per covered synthetic
// code, so its true count must divide the population size.
type MaskBuilder struct {
	template []bool
	shuffle  bool
	rng      *rand.Rand
}

func NewMaskBuilder(template []bool, shuffle bool, seed uint64) (*MaskBuilder, error) {
	if len(template) == 0 {
		return nil, model.Configf("mask template must not be empty")
	}
	trues := 0
	for _, synthetic := range template {
		if synthetic {
			trues++
		}
	}
	if trues == 0 {
		return nil, model.Configf("mask template needs at least one synthetic position")
	}
	return &MaskBuilder{
		template: append([]bool(nil), template...),
		shuffle:  shuffle,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Build produces a mask whose true count equals the synthetic population.
func (b *MaskBuilder) Build(synthetic int) (model.Mask, error) {
	trues := 0
	for _, s := range b.template {
		if s {
			trues++
		}
	}
	if synthetic%trues != 0 {
		return nil, model.Shapef("template with %d synthetic positions cannot tile a population of %d", trues, synthetic)
	}
	repeats := synthetic / trues
	mask := make(model.Mask, 0, repeats*len(b.template))
	for i := 0; i < repeats; i++ {
		mask = append(mask, b.template...)
	}
	if b.shuffle {
		b.rng.Shuffle(len(mask), func(i, j int) {
			mask[i], mask[j] = mask[j], mask[i]
		})
	}
	return mask, nil
}

// AllSynthetic is the trivial mask for runs without natural stimuli.
func AllSynthetic(n int) model.Mask {
	mask := make(model.Mask, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}
