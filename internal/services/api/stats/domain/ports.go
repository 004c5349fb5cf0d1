package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Overview(ctx context.Context, in OverviewInput) (Overview, error)
	Keywords(ctx context.Context, in KeywordsInput) ([]KeywordRow, error)
	Timeline(ctx context.Context, in TimelineInput) (Timeline, error)
	Platforms(ctx context.Context, in PlatformsInput) (Platforms, error)
	Stories(ctx context.Context, in StoriesInput) ([]StoryRow, error)
}
