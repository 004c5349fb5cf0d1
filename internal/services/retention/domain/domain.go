// Package domain holds the retention contract shared by the repo, service and binaries
package domain

import (
	"context"
	"time"
)

// Table is a pruneable table, only the listed ones are accepted
type Table string

// pruneable tables
const (
	TableObservations Table = "keyword_observations"
	TableStories      Table = "stories"
	TableArticles     Table = "articles"
	TableBatches      Table = "collection_batches"
	TableLeases       Table = "collection_leases"
)

// Tables lists every pruneable table in delete order
var Tables = []Table{TableObservations, TableStories, TableArticles, TableBatches, TableLeases}

// Column returns the timestamp that ages a row, empty for unknown tables
func (t Table) Column() string {
	switch t {
	case TableObservations:
		return "observed_at"
	case TableStories, TableArticles:
		return "collected_at"
	case TableBatches:
		return "finished_at"
	case TableLeases:
		return "slot"
	}
	return ""
}

// Report summarises one prune pass
type Report struct {
	Cutoff  time.Time       `json:"cutoff"`
	Deleted map[Table]int64 `json:"deleted"`
	CH      bool            `json:"clickhouse"`
}

// Total sums the postgres rows removed
func (r Report) Total() int64 {
	var n int64
	for _, d := range r.Deleted {
		n += d
	}
	return n
}

// StorageRepo deletes aged rows from one table
type StorageRepo interface {
	Prune(ctx context.Context, t Table, before time.Time) (int64, error)
}

// RunnerPort runs one prune pass
type RunnerPort interface {
	Prune(ctx context.Context) (Report, error)
}
