package domain

import (
	"context"

	"trendflow/internal/core/predict"
)

// Service is the trends port used by the api handlers and the cli
type Service interface {
	Velocity(ctx context.Context, q VelocityQuery) (VelocityReport, error)
	Train(ctx context.Context, req TrainRequest) (TrainReport, error)
	Predictions(ctx context.Context, q PredictionQuery) (PredictionReport, error)
	Extract(ctx context.Context, req ExtractRequest) (ExtractReport, error)
}

// ModelCache keeps trained models by scope, an empty scope means every platform
type ModelCache interface {
	Get(ctx context.Context, scope string) (*predict.Model, bool)
	Put(ctx context.Context, scope string, m *predict.Model)
	Invalidate(ctx context.Context, scope string)
}
