package domain

import (
	"context"

	kwdom "trendflow/internal/services/keywords/domain"
)

// RunnerPort runs one collection batch
type RunnerPort interface {
	RunOnce(ctx context.Context) (BatchReport, error)
}

// StorageRepo persists the raw items and the batch ledger
type StorageRepo interface {
	InsertStories(ctx context.Context, batchID string, xs []Story) (int, error)
	InsertArticles(ctx context.Context, batchID string, xs []Article) (int, error)
	RecordBatch(ctx context.Context, r BatchReport) error
}

// Upstream holds the ports the collector consumes from other modules
type Upstream struct {
	Keywords kwdom.Store
}
