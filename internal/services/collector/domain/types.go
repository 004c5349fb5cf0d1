// Package domain holds the collector types shared by the repo, service and binaries
package domain

import (
	"time"

	"trendflow/internal/core/keywords"
)

// Story is one Hacker News front page item as stored
type Story struct {
	SourceID    int64     `json:"source_id"`
	Platform    string    `json:"platform"`
	Title       string    `json:"title"`
	Score       int       `json:"score"`
	Comments    int       `json:"num_comments"`
	URL         string    `json:"url"`
	PostedAt    time.Time `json:"posted_at"`
	CollectedAt time.Time `json:"collected_at"`
}

// Article is a news search hit or a feed entry
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Platform    string    `json:"platform"`
	PublishedAt time.Time `json:"published_at"`
	CollectedAt time.Time `json:"collected_at"`
}

// BatchReport summarises one collection run
// Failures maps a source name to the error that stopped it, the run itself still succeeded
type BatchReport struct {
	ID           string               `json:"id"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
	Stories      int                  `json:"stories"`
	Articles     int                  `json:"articles"`
	Observations map[string]int       `json:"observations"`
	TopTerms     []keywords.TermCount `json:"top_terms"`
	Disabled     []string             `json:"disabled,omitempty"`
	Failures     map[string]string    `json:"failures,omitempty"`
	Skipped      bool                 `json:"skipped,omitempty"`
}

// TotalObservations sums the observations written over all platforms
func (r BatchReport) TotalObservations() int {
	n := 0
	for _, c := range r.Observations {
		n += c
	}
	return n
}

// Partial reports whether a secondary source failed
func (r BatchReport) Partial() bool { return len(r.Failures) > 0 }

// BatchCollected is the event published after every stored batch
type BatchCollected struct {
	ID           string               `json:"id"`
	FinishedAt   time.Time            `json:"finished_at"`
	Stories      int                  `json:"stories"`
	Articles     int                  `json:"articles"`
	Observations map[string]int       `json:"observations"`
	TopTerms     []keywords.TermCount `json:"top_terms"`
	Failures     map[string]string    `json:"failures,omitempty"`
}

// Event builds the bus payload for r
func (r BatchReport) Event() BatchCollected {
	return BatchCollected{
		ID:           r.ID,
		FinishedAt:   r.FinishedAt,
		Stories:      r.Stories,
		Articles:     r.Articles,
		Observations: r.Observations,
		TopTerms:     r.TopTerms,
		Failures:     r.Failures,
	}
}
