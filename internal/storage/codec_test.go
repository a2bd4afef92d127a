package storage

import (
	"encoding/json"
	"errors"
	"testing"

	"oneiros/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	record := testRecord("run-codec", "2026-03-01T12:00:00Z")
	payload, err := EncodeRun(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRun(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != record {
		t.Fatalf("record changed through codec: %+v", got)
	}
}

func TestStatisticsCodecIsLossless(t *testing.T) {
	natural := 0.30000000000000004
	statistics := model.RunStatistics{
		BestScore:         -1.0 / 3.0,
		BestGeneration:    7,
		BestIndex:         2,
		MeanPerGeneration: []float64{0.1, 0.2, 1.0 / 3.0},
		SEMPerGeneration:  []float64{0.01, 0.02, 0.03},
		BestPerGeneration: []float64{0.5, 0.9, 0.95},
		BestNaturalScore:  &natural,
	}

	payload, err := EncodeStatistics(statistics)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeStatistics(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.BestScore != statistics.BestScore {
		t.Fatalf("best score not lossless: %v vs %v", got.BestScore, statistics.BestScore)
	}
	for i := range statistics.MeanPerGeneration {
		if got.MeanPerGeneration[i] != statistics.MeanPerGeneration[i] {
			t.Fatalf("mean not lossless at %d", i)
		}
	}
	if got.BestNaturalScore == nil || *got.BestNaturalScore != natural {
		t.Fatalf("natural best not lossless: %v", got.BestNaturalScore)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	payload, err := json.Marshal(versionedPayload{
		CodecVersion: CurrentCodecVersion + 1,
		Payload:      json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := DecodeRun(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestBestCodeCodecRoundTrip(t *testing.T) {
	code := []float64{0.1, -0.2, 0.30000000000000004}
	payload, err := EncodeBestCode(code)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBestCode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range code {
		if got[i] != code[i] {
			t.Fatalf("code not lossless at %d: %v vs %v", i, got[i], code[i])
		}
	}
}
