package service

import (
	"context"

	"trendflow/internal/adapters/ingest/feeds"
	"trendflow/internal/adapters/ingest/hackernews"
	"trendflow/internal/adapters/ingest/newsapi"
)

// StorySource is the primary source, a failure here fails the run
type StorySource interface {
	TopStories(ctx context.Context) ([]hackernews.Item, error)
}

// NewsSource searches articles for the batch's leading terms
type NewsSource interface {
	Enabled() bool
	Search(ctx context.Context, keywords []string) ([]newsapi.Article, error)
}

// FeedSource reads the configured feeds, errors are reported per feed url
type FeedSource interface {
	Enabled() bool
	Fetch(ctx context.Context) ([]feeds.Entry, map[string]error)
}

var (
	_ StorySource = (*hackernews.Client)(nil)
	_ NewsSource  = (*newsapi.Client)(nil)
	_ FeedSource  = (*feeds.Reader)(nil)
)
