package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	api "oneiros/pkg/oneiros"
)

// runConfig mirrors api.RunRequest for YAML run files. Explicit command-line
// flags override config values.
type runConfig struct {
	Benchmark    string  `yaml:"benchmark"`
	Optimizer    string  `yaml:"optimizer"`
	Population   int     `yaml:"population"`
	Generations  int     `yaml:"generations"`
	Seed         uint64  `yaml:"seed"`
	EliteCount   int     `yaml:"elite_count"`
	ParentCount  int     `yaml:"parent_count"`
	MutationRate float64 `yaml:"mutation_rate"`
	MutationSize float64 `yaml:"mutation_size"`
	Temperature  float64 `yaml:"temperature"`
	Distribution string  `yaml:"distribution"`
	MaskTemplate string  `yaml:"mask_template"`
	ShuffleMask  bool    `yaml:"shuffle_mask"`
}

func loadRunRequestFromConfig(path string) (api.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.RunRequest{}, err
	}

	var cfg runConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return api.RunRequest{}, err
	}

	return api.RunRequest{
		Benchmark:    cfg.Benchmark,
		Optimizer:    cfg.Optimizer,
		Population:   cfg.Population,
		Generations:  cfg.Generations,
		Seed:         cfg.Seed,
		EliteCount:   cfg.EliteCount,
		ParentCount:  cfg.ParentCount,
		MutationRate: cfg.MutationRate,
		MutationSize: cfg.MutationSize,
		Temperature:  cfg.Temperature,
		Distribution: cfg.Distribution,
		MaskTemplate: cfg.MaskTemplate,
		ShuffleMask:  cfg.ShuffleMask,
	}, nil
}

func loadOrDefaultRunRequest(configPath string) (api.RunRequest, error) {
	if configPath == "" {
		return api.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return api.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

// overrideFromFlags applies explicitly set flags over config-file values.
func overrideFromFlags(req *api.RunRequest, set map[string]bool, flagValue map[string]any) {
	apply := func(name string, assign func(any)) {
		if !set[name] {
			return
		}
		if v, ok := flagValue[name]; ok {
			assign(v)
		}
	}

	apply("benchmark", func(v any) { req.Benchmark = v.(string) })
	apply("optimizer", func(v any) { req.Optimizer = v.(string) })
	apply("pop", func(v any) { req.Population = v.(int) })
	apply("gens", func(v any) { req.Generations = v.(int) })
	apply("seed", func(v any) { req.Seed = v.(uint64) })
	apply("elites", func(v any) { req.EliteCount = v.(int) })
	apply("parents", func(v any) { req.ParentCount = v.(int) })
	apply("mutation-rate", func(v any) { req.MutationRate = v.(float64) })
	apply("mutation-size", func(v any) { req.MutationSize = v.(float64) })
	apply("temperature", func(v any) { req.Temperature = v.(float64) })
	apply("distribution", func(v any) { req.Distribution = v.(string) })
	apply("mask", func(v any) { req.MaskTemplate = v.(string) })
	apply("shuffle-mask", func(v any) { req.ShuffleMask = v.(bool) })

	if req.Benchmark == "" {
		req.Benchmark = "sphere"
	}
}
