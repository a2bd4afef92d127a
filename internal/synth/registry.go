// Package synth provides closed-form benchmark subjects so the optimization
// loop can be exercised end to end without an external model or renderer.
package synth

import (
	"sort"
	"sync"

	"oneiros/internal/experiment"
	"oneiros/internal/model"
	"oneiros/internal/scoring"
)

// Benchmark bundles everything a run needs: a renderer for codes, a subject
// that produces layer activations, the scorer over those layers, and an
// optional pool of natural reference stimuli.
type Benchmark interface {
	Name() string
	Description() string
	CodeLength() int
	Renderer() experiment.Renderer
	Subject() experiment.Subject
	Scorer() (*scoring.Scorer, error)
	NaturalSource(seed uint64) (experiment.NaturalSource, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Benchmark{}
)

// Register makes a benchmark resolvable by name. Duplicate names are a
// programming error and panic at startup.
func Register(b Benchmark) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[b.Name()]; ok {
		panic("synth: duplicate benchmark " + b.Name())
	}
	registry[b.Name()] = b
}

// Resolve looks up a registered benchmark.
func Resolve(name string) (Benchmark, error) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := registry[name]
	if !ok {
		return nil, model.Configf("unknown benchmark %q (have %v)", name, names())
	}
	return b, nil
}

// List returns the registered benchmark names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	return names()
}

func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
