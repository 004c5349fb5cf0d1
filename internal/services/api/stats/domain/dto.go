// Package domain holds DTOs for stats http and service contracts
package domain

import "time"

// Windows count back from now in whole days

// Window is the lookback shared by every stats query, 0 means 7 days
type Window struct {
	Days int `json:"days,omitempty" validate:"omitempty,min=1,max=365" example:"7"`
}

// OrDefault returns the window length in days
func (w Window) OrDefault() int {
	if w.Days <= 0 {
		return 7
	}
	return w.Days
}

// OverviewInput selects the headline counts window
type OverviewInput struct {
	Window
}

// Overview holds headline counts for the window
// StoryGrowth is the percent change against the previous equal window, 0 when that window is empty
type Overview struct {
	Days            int     `json:"days" example:"7"`
	Stories         int64   `json:"stories" example:"700"`
	PreviousStories int64   `json:"previous_stories" example:"640"`
	StoryGrowth     float64 `json:"story_growth_pct" example:"9.4"`
	Observations    int64   `json:"observations" example:"6100"`
	Articles        int64   `json:"articles" example:"120"`
}

// KeywordsInput filters the top keyword rows
type KeywordsInput struct {
	Window
	MinCount int    `json:"min_count,omitempty" validate:"omitempty,min=1,max=100000" example:"2"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200" example:"15"`
	Platform string `json:"platform,omitempty" validate:"omitempty,platform" example:"hackernews"`
}

// KeywordRow is one stored observation
type KeywordRow struct {
	Term     string    `json:"term" example:"rust"`
	Platform string    `json:"platform" example:"hackernews"`
	Count    int64     `json:"count" example:"12"`
	At       time.Time `json:"observed_at"`
}

// TimelineInput picks the keywords to chart, empty means the top 5 of the window
type TimelineInput struct {
	Window
	Keywords []string `json:"keywords,omitempty" validate:"omitempty,max=20,dive,term" example:"rust,golang"`
}

// TimelinePoint is a per day sum for one keyword
type TimelinePoint struct {
	Day   string `json:"day" example:"2025-03-14"`
	Term  string `json:"term" example:"rust"`
	Count int64  `json:"count" example:"31"`
}

// Timeline is the chart payload with the keywords actually charted
type Timeline struct {
	Keywords []string        `json:"keywords"`
	Points   []TimelinePoint `json:"points"`
}

// PlatformsInput bounds each side of the comparison
type PlatformsInput struct {
	Window
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=100" example:"8"`
}

// TermTotal is a term and how often it was seen
type TermTotal struct {
	Term  string `json:"term" example:"rust"`
	Count int64  `json:"count" example:"9"`
}

// Platforms compares hacker news observations with terms re-extracted from news titles
type Platforms struct {
	HackerNews []KeywordRow `json:"hackernews"`
	News       []TermTotal  `json:"news"`
}

// StoriesInput bounds the recent stories list
type StoriesInput struct {
	Window
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=100" example:"8"`
}

// StoryRow is a stored story
type StoryRow struct {
	SourceID    int64     `json:"source_id" example:"41234567"`
	Title       string    `json:"title" example:"Rust compiler speedup"`
	Score       int       `json:"score" example:"312"`
	Comments    int       `json:"comments" example:"88"`
	URL         string    `json:"url,omitempty" example:"https://example.com/post"`
	CollectedAt time.Time `json:"collected_at"`
}
