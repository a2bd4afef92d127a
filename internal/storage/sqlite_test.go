//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "oneiros.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer store.Close()

	record := testRecord("run-sqlite", "2026-04-01T00:00:00Z")
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("save run: %v", err)
	}
	got, ok, err := store.GetRun(ctx, record.ID)
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got != record {
		t.Fatalf("record changed through sqlite: %+v", got)
	}

	// Upsert keeps a single row per run id.
	record.FinalBestScore = -0.1
	if err := store.SaveRun(ctx, record); err != nil {
		t.Fatalf("resave run: %v", err)
	}
	records, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records after upsert, want 1", len(records))
	}
	if records[0].FinalBestScore != -0.1 {
		t.Fatalf("upsert did not replace payload: %+v", records[0])
	}

	code := []float64{1.5, -0.5}
	if err := store.SaveBestCode(ctx, record.ID, code); err != nil {
		t.Fatalf("save best code: %v", err)
	}
	gotCode, ok, err := store.GetBestCode(ctx, record.ID)
	if err != nil || !ok {
		t.Fatalf("get best code: ok=%v err=%v", ok, err)
	}
	for i := range code {
		if gotCode[i] != code[i] {
			t.Fatalf("best code changed: %v", gotCode)
		}
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "oneiros.db"))
	if _, _, err := store.GetRun(context.Background(), "any"); err == nil {
		t.Fatal("expected error before init")
	}
}
