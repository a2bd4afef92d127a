package experiment

import (
	"context"
	"errors"
	"testing"

	"oneiros/internal/model"
	"oneiros/internal/optim"
	"oneiros/internal/scoring"
)

// countingSubject records how many observation batches it served.
type countingSubject struct {
	target []float64
	calls  int
}

func (s *countingSubject) Observe(_ context.Context, stimuli [][]float64) (model.State, error) {
	s.calls++
	rows := make([][]float64, len(stimuli))
	for i, stimulus := range stimuli {
		total := 0.0
		for j, v := range stimulus {
			d := v - s.target[j]
			total += d * d
		}
		rows[i] = []float64{-total}
	}
	return model.State{"response": rows}, nil
}

type passthroughRenderer struct{}

func (passthroughRenderer) Render(_ context.Context, codes model.Codes) ([][]float64, error) {
	out := make([][]float64, len(codes))
	for i, code := range codes {
		out[i] = append([]float64(nil), code...)
	}
	return out, nil
}

func testScorer(t *testing.T) *scoring.Scorer {
	t.Helper()
	scorer, err := scoring.NewActivityScorer(map[string]scoring.UnitSet{
		"response": scoring.AllUnits(),
	}, scoring.MeanAggregate)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	return scorer
}

func testOptimizer(t *testing.T, popSize int) optim.Optimizer {
	t.Helper()
	opt, err := optim.NewGeneticOptimizer(optim.GeneticConfig{
		CodeLength:     3,
		PopulationSize: popSize,
		EliteCount:     2,
		ParentCount:    2,
		MutationRate:   0.3,
		MutationSize:   0.3,
		Temperature:    1.0,
		Seed:           42,
	})
	if err != nil {
		t.Fatalf("new optimizer: %v", err)
	}
	return opt
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	generator, err := NewInterleavingGenerator(passthroughRenderer{}, nil)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	subject := &countingSubject{target: []float64{0, 0, 0}}
	scorer := testScorer(t)
	opt := testOptimizer(t, 8)

	valid := Config{Generator: generator, Subject: subject, Scorer: scorer, Optimizer: opt, Iterations: 3}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil generator", func(c *Config) { c.Generator = nil }},
		{"nil subject", func(c *Config) { c.Subject = nil }},
		{"nil scorer", func(c *Config) { c.Scorer = nil }},
		{"nil optimizer", func(c *Config) { c.Optimizer = nil }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			_, err := New(cfg)
			var cerr *model.ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestRunExecutesExactIterationCount(t *testing.T) {
	generator, err := NewInterleavingGenerator(passthroughRenderer{}, nil)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	subject := &countingSubject{target: []float64{1.0, -1.0, 0.5}}

	exp, err := New(Config{
		Generator:  generator,
		Subject:    subject,
		Scorer:     testScorer(t),
		Optimizer:  testOptimizer(t, 8),
		Iterations: 7,
	})
	if err != nil {
		t.Fatalf("new experiment: %v", err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if subject.calls != 7 {
		t.Fatalf("subject observed %d batches, want exactly 7", subject.calls)
	}
	if result.Message.Generations() != 7 {
		t.Fatalf("recorded %d generations, want 7", result.Message.Generations())
	}
	if len(result.Statistics.MeanPerGeneration) != 7 {
		t.Fatalf("mean series has %d entries, want 7", len(result.Statistics.MeanPerGeneration))
	}
	if len(result.BestCode) != 3 {
		t.Fatalf("best code has length %d, want 3", len(result.BestCode))
	}
	if result.Statistics.BestNaturalScore != nil {
		t.Fatal("synthetic-only run must not report a natural best")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	generator, err := NewInterleavingGenerator(passthroughRenderer{}, nil)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	exp, err := New(Config{
		Generator:  generator,
		Subject:    &countingSubject{target: []float64{0, 0, 0}},
		Scorer:     testScorer(t),
		Optimizer:  testOptimizer(t, 8),
		Iterations: 100,
	})
	if err != nil {
		t.Fatalf("new experiment: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exp.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunInterleavesNaturals(t *testing.T) {
	naturals, err := NewSliceSource([][]float64{
		{10.0, 10.0, 10.0},
		{-10.0, -10.0, -10.0},
	}, []int{7, 8})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	generator, err := NewInterleavingGenerator(passthroughRenderer{}, naturals)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	// Two synthetic codes then one natural per repeat, four codes per batch.
	builder, err := NewMaskBuilder([]bool{true, true, false}, false, 1)
	if err != nil {
		t.Fatalf("new mask builder: %v", err)
	}

	exp, err := New(Config{
		Generator:  generator,
		Subject:    &countingSubject{target: []float64{0, 0, 0}},
		Scorer:     testScorer(t),
		Optimizer:  testOptimizer(t, 4),
		Iterations: 5,
		Mask:       builder,
	})
	if err != nil {
		t.Fatalf("new experiment: %v", err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	naturalScores, err := result.Message.NaturalScores()
	if err != nil {
		t.Fatalf("natural scores: %v", err)
	}
	if len(naturalScores) != 2 {
		t.Fatalf("got %d natural scores per generation, want 2", len(naturalScores))
	}
	if result.Statistics.BestNaturalScore == nil {
		t.Fatal("interleaved run must report a best natural score")
	}
	// Both natural stimuli sit at distance sqrt(300) from the target, so every
	// natural score is exactly -300.
	if *result.Statistics.BestNaturalScore != -300.0 {
		t.Fatalf("best natural score: got %v, want -300", *result.Statistics.BestNaturalScore)
	}

	labels, err := result.Message.Labels()
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("got %d labels, want 2", len(labels))
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() []float64 {
		generator, err := NewInterleavingGenerator(passthroughRenderer{}, nil)
		if err != nil {
			t.Fatalf("new generator: %v", err)
		}
		exp, err := New(Config{
			Generator:  generator,
			Subject:    &countingSubject{target: []float64{1.0, -1.0, 0.5}},
			Scorer:     testScorer(t),
			Optimizer:  testOptimizer(t, 8),
			Iterations: 20,
		})
		if err != nil {
			t.Fatalf("new experiment: %v", err)
		}
		result, err := exp.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result.BestCode
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different best codes: %v vs %v", a, b)
		}
	}
}
