package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"oneiros/internal/storage"
	api "oneiros/pkg/oneiros"
)

const (
	artifactsDir = "artifacts"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "best-code":
		return runBestCode(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "benchmarks":
		return runBenchmarks(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(reason string) error {
	return fmt.Errorf("%s\nusage: oneirosctl <run|runs|stats|best-code|export|benchmarks> [flags]", reason)
}

func newClient(storeKind, dbPath string, verbose bool) (*api.Client, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return api.New(api.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
		Logger:       logger,
	})
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config YAML path")
	benchmark := fs.String("benchmark", "sphere", "benchmark name")
	optimizer := fs.String("optimizer", "genetic", "optimizer: genetic|cem")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 100, "generation count")
	seed := fs.Uint64("seed", 1, "rng seed")
	eliteCount := fs.Int("elites", 2, "elite count")
	parentCount := fs.Int("parents", 2, "parents per family")
	mutationRate := fs.Float64("mutation-rate", 0.3, "per-gene mutation probability")
	mutationSize := fs.Float64("mutation-size", 0.3, "mutation noise scale")
	temperature := fs.Float64("temperature", 1.0, "softmax fitness temperature")
	distribution := fs.String("distribution", "normal", "code distribution: normal|gumbel|laplace|logistic")
	maskTemplate := fs.String("mask", "", "synthetic/natural mask template, e.g. TTF (empty = all synthetic)")
	shuffleMask := fs.Bool("shuffle-mask", false, "shuffle the expanded mask each generation")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oneiros.db", "sqlite database path")
	verbose := fs.Bool("verbose", false, "log per-generation progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overrideFromFlags(&req, set, map[string]any{
		"benchmark":     *benchmark,
		"optimizer":     *optimizer,
		"pop":           *population,
		"gens":          *generations,
		"seed":          *seed,
		"elites":        *eliteCount,
		"parents":       *parentCount,
		"mutation-rate": *mutationRate,
		"mutation-size": *mutationSize,
		"temperature":   *temperature,
		"distribution":  *distribution,
		"mask":          *maskTemplate,
		"shuffle-mask":  *shuffleMask,
	})

	client, err := newClient(*storeKind, *dbPath, *verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run=%s benchmark=%s best=%.6f at generation %d\n", summary.RunID, req.Benchmark, summary.BestScore, summary.BestGeneration)
	if summary.BestNaturalScore != nil {
		fmt.Printf("best natural score=%.6f\n", *summary.BestNaturalScore)
	}
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum rows to list")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oneiros.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, api.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, item := range runs {
		age := item.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, item.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("%s  %s/%s  pop=%d gens=%d seed=%d  best=%.6f  %s\n",
			item.RunID, item.Benchmark, item.Optimizer,
			item.Population, item.Generations, item.Seed,
			item.FinalBestScore, age)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oneiros.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	statistics, err := client.Stats(ctx, *runID)
	if err != nil {
		return err
	}

	fmt.Printf("best=%.6f at generation %d index %d\n", statistics.BestScore, statistics.BestGeneration, statistics.BestIndex)
	if statistics.BestNaturalScore != nil {
		fmt.Printf("best natural=%.6f\n", *statistics.BestNaturalScore)
	}
	for gen := range statistics.MeanPerGeneration {
		fmt.Printf("gen=%d mean=%.6f sem=%.6f best=%.6f\n",
			gen, statistics.MeanPerGeneration[gen], statistics.SEMPerGeneration[gen], statistics.BestPerGeneration[gen])
	}
	return nil
}

func runBestCode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best-code", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "oneiros.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	code, err := client.BestCode(ctx, *runID)
	if err != nil {
		return err
	}
	for i, v := range code {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Printf("%.6f", v)
	}
	fmt.Println()
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "destination directory (default exports/)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(storage.DefaultStoreKind(), "oneiros.db", false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, api.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run=%s to %s\n", summary.RunID, summary.Directory)
	return nil
}

func runBenchmarks(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmarks", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(storage.DefaultStoreKind(), "oneiros.db", false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, item := range client.Benchmarks() {
		fmt.Printf("%s (codes of length %d): %s\n", item.Name, item.CodeLength, item.Description)
	}
	return nil
}
