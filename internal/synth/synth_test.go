package synth

import (
	"context"
	"testing"

	"oneiros/internal/experiment"
	"oneiros/internal/model"
	"oneiros/internal/optim"
)

func TestRegistryResolvesBuiltins(t *testing.T) {
	names := List()
	want := map[string]bool{"sphere": false, "ridge": false}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("builtin benchmark %q not registered (have %v)", name, names)
		}
	}

	if _, err := Resolve("no-such-benchmark"); err == nil {
		t.Fatal("expected error for unknown benchmark")
	}
}

func TestSphereOptimumAtTarget(t *testing.T) {
	target := []float64{0.5, -0.5}
	bench := NewSphere("test-sphere", target)

	scorer, err := bench.Scorer()
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}

	ctx := context.Background()
	codes := model.Codes{target, {0.5, 0.5}}
	stimuli, err := bench.Renderer().Render(ctx, codes)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	state, err := bench.Subject().Observe(ctx, stimuli)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	scores, err := scorer.Score(state)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if scores[0] != 0.0 {
		t.Fatalf("target code must score 0, got %v", scores[0])
	}
	if scores[1] >= scores[0] {
		t.Fatalf("off-target code must score worse: %v", scores)
	}
}

func TestRidgeScoresTwoLayers(t *testing.T) {
	target := []float64{1.0, -1.0}
	bench := NewRidge("test-ridge", target)

	scorer, err := bench.Scorer()
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}

	ctx := context.Background()
	state, err := bench.Subject().Observe(ctx, [][]float64{target})
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if state.Rows() != 1 {
		t.Fatalf("got %d rows, want 1", state.Rows())
	}
	if _, ok := state["shallow"]; !ok {
		t.Fatal("ridge subject must expose a shallow layer")
	}
	if _, ok := state["deep"]; !ok {
		t.Fatal("ridge subject must expose a deep layer")
	}

	scores, err := scorer.Score(state)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// At the target the shallow error units are all zero and the deep bump is
	// exactly 1, weighted by 2.
	if scores[0] != 2.0 {
		t.Fatalf("target code must score 2, got %v", scores[0])
	}
}

func TestNaturalSourceIsDeterministic(t *testing.T) {
	bench, err := Resolve("sphere")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	a, err := bench.NaturalSource(5)
	if err != nil {
		t.Fatalf("natural source: %v", err)
	}
	b, err := bench.NaturalSource(5)
	if err != nil {
		t.Fatalf("natural source: %v", err)
	}
	sa, _, err := a.Next(4)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	sb, _, err := b.Next(4)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	for i := range sa {
		for j := range sa[i] {
			if sa[i][j] != sb[i][j] {
				t.Fatalf("same seed produced different pools at [%d][%d]", i, j)
			}
		}
	}
}

func TestSphereEndToEndRun(t *testing.T) {
	bench, err := Resolve("sphere")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	scorer, err := bench.Scorer()
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	generator, err := experiment.NewInterleavingGenerator(bench.Renderer(), nil)
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	opt, err := optim.NewGeneticOptimizer(optim.GeneticConfig{
		CodeLength:     bench.CodeLength(),
		PopulationSize: 20,
		EliteCount:     2,
		ParentCount:    2,
		MutationRate:   0.3,
		MutationSize:   0.3,
		Temperature:    1.0,
		Seed:           11,
	})
	if err != nil {
		t.Fatalf("optimizer: %v", err)
	}

	exp, err := experiment.New(experiment.Config{
		Generator:  generator,
		Subject:    bench.Subject(),
		Scorer:     scorer,
		Optimizer:  opt,
		Iterations: 50,
	})
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	first := result.Statistics.BestPerGeneration[0]
	if result.Statistics.BestScore <= first {
		t.Fatalf("no improvement over the run: first %v, best %v", first, result.Statistics.BestScore)
	}
	if len(result.BestCode) != bench.CodeLength() {
		t.Fatalf("best code length %d, want %d", len(result.BestCode), bench.CodeLength())
	}
}
