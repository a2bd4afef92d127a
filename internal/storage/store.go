package storage

import (
	"context"

	"oneiros/internal/model"
)

// Store persists run records, their derived statistics and the best code
// found. Get methods report absence with a false flag, not an error.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, record model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveStatistics(ctx context.Context, runID string, statistics model.RunStatistics) error
	GetStatistics(ctx context.Context, runID string) (model.RunStatistics, bool, error)
	SaveBestCode(ctx context.Context, runID string, code []float64) error
	GetBestCode(ctx context.Context, runID string) ([]float64, bool, error)
}
