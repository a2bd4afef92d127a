package scoring

import (
	"math/rand/v2"

	"oneiros/internal/model"
)

// UnitSet selects a subset of a layer's flattened activation space, with
// optional per-unit weights. A nil index list selects every unit.
type UnitSet struct {
	Indices []int
	Weights []float64
}

// AllUnits selects the whole layer uniformly.
func AllUnits() UnitSet {
	return UnitSet{}
}

// UnitList selects an explicit set of unit indices.
func UnitList(indices ...int) UnitSet {
	return UnitSet{Indices: append([]int(nil), indices...)}
}

// UnitRange selects the contiguous half-open index range [from, to).
func UnitRange(from, to int) (UnitSet, error) {
	if from < 0 || to < from {
		return UnitSet{}, model.Configf("invalid unit range [%d, %d)", from, to)
	}
	indices := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		indices = append(indices, i)
	}
	return UnitSet{Indices: indices}, nil
}

// RandomUnits selects count distinct units from [0, bound) using the given
// random source.
func RandomUnits(count, bound int, rng *rand.Rand) (UnitSet, error) {
	if bound <= 0 {
		return UnitSet{}, model.Configf("unit bound must be > 0, got %d", bound)
	}
	if count <= 0 || count > bound {
		return UnitSet{}, model.Configf("random unit count must be in [1, %d], got %d", bound, count)
	}
	if rng == nil {
		return UnitSet{}, model.Configf("random source is required")
	}
	perm := rng.Perm(bound)
	indices := append([]int(nil), perm[:count]...)
	return UnitSet{Indices: indices}, nil
}

// Weighted attaches per-unit weights; the weight count must match the
// selected unit count.
func (u UnitSet) Weighted(weights []float64) (UnitSet, error) {
	if u.Indices == nil {
		return UnitSet{}, model.Configf("weights require an explicit unit selection")
	}
	if len(weights) != len(u.Indices) {
		return UnitSet{}, model.Shapef("got %d weights for %d units", len(weights), len(u.Indices))
	}
	u.Weights = append([]float64(nil), weights...)
	return u, nil
}

// Count reports how many units the set selects; 0 means "all units", which
// is only resolvable against a concrete layer width.
func (u UnitSet) Count() int {
	return len(u.Indices)
}

// Validate checks the selection against a layer's flattened width.
func (u UnitSet) Validate(layer string, width int) error {
	for _, idx := range u.Indices {
		if idx < 0 || idx >= width {
			return model.Shapef("unit index %d out of bounds for layer %s of width %d", idx, layer, width)
		}
	}
	return nil
}

// Reduce folds one activation row down to a scalar: the mean of the selected
// units, or their weighted sum when weights are attached.
func (u UnitSet) Reduce(row []float64) float64 {
	if u.Weights != nil {
		total := 0.0
		for i, idx := range u.Indices {
			total += u.Weights[i] * row[idx]
		}
		return total
	}
	if u.Indices == nil {
		total := 0.0
		for _, v := range row {
			total += v
		}
		return total / float64(len(row))
	}
	total := 0.0
	for _, idx := range u.Indices {
		total += row[idx]
	}
	return total / float64(len(u.Indices))
}
