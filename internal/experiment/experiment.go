package experiment

import (
	"context"
	"log/slog"
	"math"

	"oneiros/internal/model"
	"oneiros/internal/optim"
	"oneiros/internal/scoring"
	"oneiros/internal/session"
)

// Config wires the collaborators of one optimization run.
type Config struct {
	Generator    Generator
	Subject      Subject
	Scorer       *scoring.Scorer
	Optimizer    optim.Optimizer
	Iterations   int
	Mask         *MaskBuilder
	InitialCodes model.Codes
	Logger       *slog.Logger
}

// Result reports a finished run.
type Result struct {
	Message    *session.Message
	Statistics model.RunStatistics
	BestCode   []float64
}

// Experiment drives the generation cycle. It exclusively owns and mutates
// the session message; the optimizer exclusively owns its population.
type Experiment struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) (*Experiment, error) {
	if cfg.Generator == nil {
		return nil, model.Configf("generator is required")
	}
	if cfg.Subject == nil {
		return nil, model.Configf("subject is required")
	}
	if cfg.Scorer == nil {
		return nil, model.Configf("scorer is required")
	}
	if cfg.Optimizer == nil {
		return nil, model.Configf("optimizer is required")
	}
	if cfg.Iterations <= 0 {
		return nil, model.Configf("iterations must be > 0, got %d", cfg.Iterations)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Experiment{cfg: cfg, log: log}, nil
}

// Run executes exactly the configured number of generations. The loop is
// strictly sequential; cancellation is honored between generations only.
func (e *Experiment) Run(ctx context.Context) (Result, error) {
	msg := session.NewMessage()

	codes, err := e.cfg.Optimizer.Init(e.cfg.InitialCodes)
	if err != nil {
		return Result{}, err
	}

	bestNatural := math.Inf(-1)
	sawNatural := false

	for gen := 0; gen < e.cfg.Iterations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		mask, err := e.buildMask(len(codes))
		if err != nil {
			return Result{}, err
		}

		stimuli, labels, err := e.cfg.Generator.Generate(ctx, codes, mask)
		if err != nil {
			return Result{}, err
		}
		if len(stimuli) != len(mask) {
			return Result{}, model.Shapef("generator produced %d stimuli for a batch of %d", len(stimuli), len(mask))
		}

		state, err := e.cfg.Subject.Observe(ctx, stimuli)
		if err != nil {
			return Result{}, err
		}
		if rows := state.Rows(); rows != len(mask) {
			return Result{}, model.Shapef("subject produced %d activation rows for a batch of %d", rows, len(mask))
		}

		scores, err := e.cfg.Scorer.Score(state)
		if err != nil {
			return Result{}, err
		}
		synthetic, natural, err := mask.Split(scores)
		if err != nil {
			return Result{}, err
		}

		// The best natural score is tracked by the driver alone; the
		// optimizer only ever sees synthetic scores.
		for _, score := range natural {
			sawNatural = true
			if score > bestNatural {
				bestNatural = score
			}
		}

		if err := msg.Append(session.Generation{
			Codes:           codes,
			State:           state,
			SyntheticScores: synthetic,
			NaturalScores:   natural,
			Mask:            mask,
			Labels:          labels,
		}); err != nil {
			return Result{}, err
		}

		codes, err = e.cfg.Optimizer.Step(synthetic)
		if err != nil {
			return Result{}, err
		}

		if track, err := msg.SyntheticStats(); err == nil {
			e.log.Debug("generation complete",
				"generation", gen,
				"best", track.BestScore,
				"mean", track.MeanPerGen[len(track.MeanPerGen)-1],
			)
		}
	}

	statistics, err := msg.Statistics()
	if err != nil {
		return Result{}, err
	}
	if sawNatural {
		// Keep the driver-tracked running best authoritative for naturals.
		statistics.BestNaturalScore = &bestNatural
	}
	bestCode, err := msg.BestCode()
	if err != nil {
		return Result{}, err
	}

	e.log.Info("run finished",
		"generations", msg.Generations(),
		"best_score", statistics.BestScore,
		"best_generation", statistics.BestGeneration,
	)

	return Result{Message: msg, Statistics: statistics, BestCode: bestCode}, nil
}

func (e *Experiment) buildMask(synthetic int) (model.Mask, error) {
	if e.cfg.Mask == nil {
		return AllSynthetic(synthetic), nil
	}
	return e.cfg.Mask.Build(synthetic)
}
