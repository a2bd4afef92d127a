package scoring

import (
	"errors"
	"math"
	"testing"

	"oneiros/internal/model"
)

func TestActivityScorerMeanAcrossLayers(t *testing.T) {
	scorer, err := NewActivityScorer(map[string]UnitSet{
		"shallow": AllUnits(),
		"deep":    AllUnits(),
	}, MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}

	const batch = 5
	shallow := make([][]float64, batch)
	deep := make([][]float64, batch)
	for i := 0; i < batch; i++ {
		shallow[i] = []float64{2.0, 2.0, 2.0}
		deep[i] = []float64{4.0}
	}

	scores, err := scorer.Score(model.State{"shallow": shallow, "deep": deep})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(scores) != batch {
		t.Fatalf("got %d scores for a batch of %d", len(scores), batch)
	}
	for i, score := range scores {
		if score != 3.0 {
			t.Fatalf("score %d: got %v, want exactly 3.0", i, score)
		}
	}
}

func TestActivityScorerMissingLayer(t *testing.T) {
	scorer, err := NewActivityScorer(map[string]UnitSet{
		"conv5": AllUnits(),
		"fc8":   AllUnits(),
	}, MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}

	_, err = scorer.Score(model.State{"fc8": {{1.0}}})
	var merr *model.MissingLayerError
	if !errors.As(err, &merr) {
		t.Fatalf("expected missing layer error, got %v", err)
	}
	if len(merr.Missing) != 1 || merr.Missing[0] != "conv5" {
		t.Fatalf("error must name the missing layer, got %v", merr.Missing)
	}
}

func TestActivityScorerIgnoresExtraLayers(t *testing.T) {
	scorer, err := NewActivityScorer(map[string]UnitSet{"target": AllUnits()}, MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	scores, err := scorer.Score(model.State{
		"target":   {{1.0}, {2.0}},
		"recorded": {{99.0}, {99.0}},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scores[0] != 1.0 || scores[1] != 2.0 {
		t.Fatalf("recorded-only layer leaked into scores: %v", scores)
	}
}

func TestActivityScorerUnitSelection(t *testing.T) {
	scorer, err := NewActivityScorer(map[string]UnitSet{
		"layer": UnitList(0, 2),
	}, MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	scores, err := scorer.Score(model.State{"layer": {{1.0, 100.0, 3.0}}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scores[0] != 2.0 {
		t.Fatalf("selected units [0 2] should average to 2.0, got %v", scores[0])
	}
}

func TestActivityScorerUnitOutOfBounds(t *testing.T) {
	scorer, err := NewActivityScorer(map[string]UnitSet{
		"layer": UnitList(5),
	}, MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	_, err = scorer.Score(model.State{"layer": {{1.0, 2.0}}})
	var serr *model.ShapeError
	if !errors.As(err, &serr) {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestWeightedUnitReduce(t *testing.T) {
	units, err := UnitList(0, 1).Weighted([]float64{0.25, 0.75})
	if err != nil {
		t.Fatalf("weighted: %v", err)
	}
	got := units.Reduce([]float64{4.0, 8.0})
	if got != 7.0 {
		t.Fatalf("weighted reduce: got %v, want 7.0", got)
	}
}

func TestWeightedRequiresExplicitSelection(t *testing.T) {
	_, err := AllUnits().Weighted([]float64{1.0})
	var cerr *model.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = UnitList(0, 1).Weighted([]float64{1.0})
	var serr *model.ShapeError
	if !errors.As(err, &serr) {
		t.Fatalf("expected shape error for weight count mismatch, got %v", err)
	}
}

func TestUnitRange(t *testing.T) {
	units, err := UnitRange(2, 5)
	if err != nil {
		t.Fatalf("unit range: %v", err)
	}
	want := []int{2, 3, 4}
	if len(units.Indices) != len(want) {
		t.Fatalf("got %v, want %v", units.Indices, want)
	}
	for i := range want {
		if units.Indices[i] != want[i] {
			t.Fatalf("got %v, want %v", units.Indices, want)
		}
	}
	if _, err := UnitRange(3, 1); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestMSEScorerExactTarget(t *testing.T) {
	scorer, err := NewMSEScorer(map[string][]float64{
		"out": {1.0, 2.0, 3.0},
	}, nil)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	scores, err := scorer.Score(model.State{"out": {
		{1.0, 2.0, 3.0},
		{1.0, 2.0, 6.0},
	}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scores[0] != 0.0 {
		t.Fatalf("exact match must score 0, got %v", scores[0])
	}
	if math.Abs(scores[1]-(-3.0)) > 1e-12 {
		t.Fatalf("off-by-three on one of three units must score -3, got %v", scores[1])
	}
	if scores[1] >= scores[0] {
		t.Fatal("closer states must score higher")
	}
}

func TestMSEScorerRowWidthMismatch(t *testing.T) {
	scorer, err := NewMSEScorer(map[string][]float64{"out": {1.0, 2.0}}, nil)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	_, err = scorer.Score(model.State{"out": {{1.0}}})
	var serr *model.ShapeError
	if !errors.As(err, &serr) {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestWeightedAggregateSkipsUnweightedLayers(t *testing.T) {
	agg := WeightedAggregate(map[string]float64{"a": 2.0})
	scores := agg(map[string][]float64{
		"a": {1.0, 2.0},
		"b": {100.0, 100.0},
	})
	if scores[0] != 2.0 || scores[1] != 4.0 {
		t.Fatalf("got %v, want [2 4]", scores)
	}
}

func TestOptimizingUnits(t *testing.T) {
	scorer, err := NewActivityScorer(map[string]UnitSet{
		"a": UnitList(0, 1, 2),
		"b": UnitList(4),
	}, MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	if got := scorer.OptimizingUnits(); got != 4 {
		t.Fatalf("got %d optimizing units, want 4", got)
	}
}
