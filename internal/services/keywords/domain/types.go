// Package domain holds the keyword frequency store contract
package domain

import (
	"context"
	"time"

	"trendflow/internal/core/series"
)

// Query selects observations in the half open range [From, To)
// an empty Platform matches every platform, a zero To leaves the range open
type Query struct {
	Platform string    `json:"platform,omitempty"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// QueryOf builds a query over r restricted to platform
func QueryOf(r series.Range, platform string) Query {
	return Query{Platform: platform, From: r.From, To: r.To}
}

// Range returns the query window as a series range
func (q Query) Range() series.Range { return series.Range{From: q.From, To: q.To} }

// Store is the frequency store port
// an append is visible to every query that starts after it returns
type Store interface {
	Append(ctx context.Context, obs ...series.Observation) error
	Query(ctx context.Context, q Query) ([]series.Observation, error)
}

// Backend names a storage engine for observations
type Backend string

const (
	// BackendPG keeps observations in postgres
	BackendPG Backend = "pg"
	// BackendCH keeps observations in clickhouse
	BackendCH Backend = "ch"
)
