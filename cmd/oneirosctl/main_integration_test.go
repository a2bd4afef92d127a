package main

import (
	"context"
	"os"
	"testing"
)

func TestRunCommandEndToEnd(t *testing.T) {
	t.Chdir(t.TempDir())
	ctx := context.Background()

	err := run(ctx, []string{"run",
		"-benchmark", "sphere",
		"-pop", "10",
		"-gens", "5",
		"-seed", "3",
		"-store", "memory",
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
}

func TestRunCommandWithConfigAndOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, "run.yaml", `benchmark: sphere
population: 10
generations: 200
seed: 5
`)

	// The flag overrides the config's generation count.
	err := run(context.Background(), []string{"run",
		"-config", "run.yaml",
		"-gens", "3",
		"-store", "memory",
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestBenchmarksCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := run(context.Background(), []string{"benchmarks"}); err != nil {
		t.Fatalf("benchmarks command: %v", err)
	}
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
