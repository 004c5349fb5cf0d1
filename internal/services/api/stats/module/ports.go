package module

import (
	"context"

	"trendflow/internal/services/api/stats/domain"
	statssvc "trendflow/internal/services/api/stats/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptStatsPort struct{ svc statssvc.Service }

var _ domain.ServicePort = adaptStatsPort{}

// Overview returns the headline counts
func (a adaptStatsPort) Overview(ctx context.Context, in domain.OverviewInput) (domain.Overview, error) {
	return a.svc.Overview(ctx, in)
}

// Keywords returns the top keyword rows
func (a adaptStatsPort) Keywords(ctx context.Context, in domain.KeywordsInput) ([]domain.KeywordRow, error) {
	return a.svc.Keywords(ctx, in)
}

// Timeline returns per day keyword sums
func (a adaptStatsPort) Timeline(ctx context.Context, in domain.TimelineInput) (domain.Timeline, error) {
	return a.svc.Timeline(ctx, in)
}

// Platforms compares hacker news with news outlets
func (a adaptStatsPort) Platforms(ctx context.Context, in domain.PlatformsInput) (domain.Platforms, error) {
	return a.svc.Platforms(ctx, in)
}

// Stories returns the top stories
func (a adaptStatsPort) Stories(ctx context.Context, in domain.StoriesInput) ([]domain.StoryRow, error) {
	return a.svc.Stories(ctx, in)
}
