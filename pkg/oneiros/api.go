// Package oneiros is the public client for running and inspecting
// activation-maximization experiments against the built-in benchmarks.
package oneiros

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"oneiros/internal/experiment"
	"oneiros/internal/model"
	"oneiros/internal/optim"
	"oneiros/internal/stats"
	"oneiros/internal/storage"
	"oneiros/internal/synth"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "oneiros.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store storage.Store
	log   *slog.Logger

	initialized  bool
	artifactsDir string
	exportsDir   string
}

// RunRequest configures one optimization run. Zero values select the
// documented defaults.
type RunRequest struct {
	Benchmark    string
	Optimizer    string
	Population   int
	Generations  int
	Seed         uint64
	EliteCount   int
	ParentCount  int
	MutationRate float64
	MutationSize float64
	Temperature  float64
	Distribution string
	// MaskTemplate is a string of 'T' and 'F' characters describing the
	// synthetic/natural interleaving pattern, e.g. "TTF". Empty means all
	// synthetic.
	MaskTemplate string
	ShuffleMask  bool
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestScore        float64
	BestGeneration   int
	BestPerGen       []float64
	BestNaturalScore *float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Benchmark      string
	Optimizer      string
	Seed           uint64
	Population     int
	Generations    int
	FinalBestScore float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type BenchmarkItem struct {
	Name        string
	Description string
	CodeLength  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		log:          log,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Benchmark == "" {
		req.Benchmark = "sphere"
	}
	if req.Optimizer == "" {
		req.Optimizer = "genetic"
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.EliteCount <= 0 {
		req.EliteCount = 2
	}
	if req.ParentCount <= 0 {
		req.ParentCount = 2
	}
	if req.MutationRate <= 0 {
		req.MutationRate = 0.3
	}
	if req.MutationSize <= 0 {
		req.MutationSize = 0.3
	}
	if req.Temperature <= 0 {
		req.Temperature = 1.0
	}

	bench, err := synth.Resolve(req.Benchmark)
	if err != nil {
		return RunSummary{}, err
	}

	optimizer, err := buildOptimizer(req, bench.CodeLength())
	if err != nil {
		return RunSummary{}, err
	}
	scorer, err := bench.Scorer()
	if err != nil {
		return RunSummary{}, err
	}

	var builder *experiment.MaskBuilder
	var naturals experiment.NaturalSource
	if req.MaskTemplate != "" {
		template, err := parseMaskTemplate(req.MaskTemplate)
		if err != nil {
			return RunSummary{}, err
		}
		builder, err = experiment.NewMaskBuilder(template, req.ShuffleMask, req.Seed)
		if err != nil {
			return RunSummary{}, err
		}
		hasNatural := false
		for _, synthetic := range template {
			if !synthetic {
				hasNatural = true
			}
		}
		if hasNatural {
			naturals, err = bench.NaturalSource(req.Seed)
			if err != nil {
				return RunSummary{}, err
			}
		}
	}

	generator, err := experiment.NewInterleavingGenerator(bench.Renderer(), naturals)
	if err != nil {
		return RunSummary{}, err
	}

	exp, err := experiment.New(experiment.Config{
		Generator:  generator,
		Subject:    bench.Subject(),
		Scorer:     scorer,
		Optimizer:  optimizer,
		Iterations: req.Generations,
		Mask:       builder,
		Logger:     c.log,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	record := model.RunRecord{
		ID:             runID,
		Benchmark:      req.Benchmark,
		Optimizer:      optimizer.Name(),
		PopulationSize: req.Population,
		Generations:    req.Generations,
		Seed:           req.Seed,
		EliteCount:     req.EliteCount,
		ParentCount:    req.ParentCount,
		MutationRate:   req.MutationRate,
		MutationSize:   req.MutationSize,
		Temperature:    req.Temperature,
		FinalBestScore: result.Statistics.BestScore,
		CreatedAtUTC:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := c.ensureInit(ctx); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveStatistics(ctx, runID, result.Statistics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveBestCode(ctx, runID, result.BestCode); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, record, result.Statistics, result.BestCode)
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, record); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestScore:        result.Statistics.BestScore,
		BestGeneration:   result.Statistics.BestGeneration,
		BestPerGen:       append([]float64(nil), result.Statistics.BestPerGeneration...),
		BestNaturalScore: result.Statistics.BestNaturalScore,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > req.Limit {
		records = records[:req.Limit]
	}

	out := make([]RunItem, 0, len(records))
	for _, record := range records {
		out = append(out, RunItem{
			RunID:          record.ID,
			CreatedAtUTC:   record.CreatedAtUTC,
			Benchmark:      record.Benchmark,
			Optimizer:      record.Optimizer,
			Seed:           record.Seed,
			Population:     record.PopulationSize,
			Generations:    record.Generations,
			FinalBestScore: record.FinalBestScore,
		})
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, runID string) (model.RunStatistics, error) {
	if runID == "" {
		return model.RunStatistics{}, errors.New("run id is required")
	}
	if err := c.ensureInit(ctx); err != nil {
		return model.RunStatistics{}, err
	}
	statistics, ok, err := c.store.GetStatistics(ctx, runID)
	if err != nil {
		return model.RunStatistics{}, err
	}
	if !ok {
		return model.RunStatistics{}, fmt.Errorf("statistics not found for run id: %s", runID)
	}
	return statistics, nil
}

func (c *Client) BestCode(ctx context.Context, runID string) ([]float64, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	code, ok, err := c.store.GetBestCode(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("best code not found for run id: %s", runID)
	}
	return code, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].ID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Benchmarks lists the registered synthetic benchmarks.
func (c *Client) Benchmarks() []BenchmarkItem {
	names := synth.List()
	out := make([]BenchmarkItem, 0, len(names))
	for _, name := range names {
		bench, err := synth.Resolve(name)
		if err != nil {
			continue
		}
		out = append(out, BenchmarkItem{
			Name:        bench.Name(),
			Description: bench.Description(),
			CodeLength:  bench.CodeLength(),
		})
	}
	return out
}

func (c *Client) ensureInit(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func buildOptimizer(req RunRequest, codeLength int) (optim.Optimizer, error) {
	switch req.Optimizer {
	case "genetic":
		return optim.NewGeneticOptimizer(optim.GeneticConfig{
			CodeLength:     codeLength,
			PopulationSize: req.Population,
			EliteCount:     req.EliteCount,
			ParentCount:    req.ParentCount,
			MutationRate:   req.MutationRate,
			MutationSize:   req.MutationSize,
			Temperature:    req.Temperature,
			Distribution:   optim.Distribution(req.Distribution),
			Seed:           req.Seed,
		})
	case "cem":
		return optim.NewCEMOptimizer(optim.CEMConfig{
			CodeLength:     codeLength,
			PopulationSize: req.Population,
			Seed:           req.Seed,
		})
	default:
		return nil, fmt.Errorf("unsupported optimizer: %s", req.Optimizer)
	}
}

func parseMaskTemplate(template string) ([]bool, error) {
	out := make([]bool, 0, len(template))
	for _, char := range template {
		switch char {
		case 'T', 't':
			out = append(out, true)
		case 'F', 'f':
			out = append(out, false)
		default:
			return nil, fmt.Errorf("mask template must contain only T and F characters, got %q", string(char))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("mask template must not be empty")
	}
	return out, nil
}
