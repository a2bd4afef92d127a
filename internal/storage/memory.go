package storage

import (
	"context"
	"sort"
	"sync"

	"oneiros/internal/model"
)

type MemoryStore struct {
	mu         sync.RWMutex
	runs       map[string]model.RunRecord
	statistics map[string]model.RunStatistics
	bestCodes  map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.statistics = make(map[string]model.RunStatistics)
	s.bestCodes = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, record model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[record.ID] = record
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	return record, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		records = append(records, record)
	}
	// Newest first; ties break on id for stable listings.
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtUTC == records[j].CreatedAtUTC {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAtUTC > records[j].CreatedAtUTC
	})
	return records, nil
}

func (s *MemoryStore) SaveStatistics(_ context.Context, runID string, statistics model.RunStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statistics[runID] = copyStatistics(statistics)
	return nil
}

func (s *MemoryStore) GetStatistics(_ context.Context, runID string) (model.RunStatistics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statistics, ok := s.statistics[runID]
	if !ok {
		return model.RunStatistics{}, false, nil
	}
	return copyStatistics(statistics), true, nil
}

func (s *MemoryStore) SaveBestCode(_ context.Context, runID string, code []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bestCodes[runID] = append([]float64(nil), code...)
	return nil
}

func (s *MemoryStore) GetBestCode(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.bestCodes[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), code...), true, nil
}

func copyStatistics(statistics model.RunStatistics) model.RunStatistics {
	out := statistics
	out.MeanPerGeneration = append([]float64(nil), statistics.MeanPerGeneration...)
	out.SEMPerGeneration = append([]float64(nil), statistics.SEMPerGeneration...)
	out.BestPerGeneration = append([]float64(nil), statistics.BestPerGeneration...)
	if statistics.BestNaturalScore != nil {
		best := *statistics.BestNaturalScore
		out.BestNaturalScore = &best
	}
	return out
}
