package service

import (
	"context"
	"sync"

	"trendflow/internal/core/series"
	"trendflow/internal/services/keywords/domain"
)

// Memory is an in process domain.Store for tests and dry runs
type Memory struct {
	mu   sync.RWMutex
	rows []series.Observation
}

var _ domain.Store = (*Memory)(nil)

// NewMemory returns a store seeded with obs
func NewMemory(obs ...series.Observation) *Memory {
	return &Memory{rows: append([]series.Observation(nil), obs...)}
}

// Append implements domain.Store
func (m *Memory) Append(_ context.Context, obs ...series.Observation) error {
	if err := Validate(obs); err != nil {
		return err
	}
	m.mu.Lock()
	m.rows = append(m.rows, obs...)
	m.mu.Unlock()
	return nil
}

// Query implements domain.Store
func (m *Memory) Query(_ context.Context, q domain.Query) ([]series.Observation, error) {
	if !q.To.IsZero() && !q.From.Before(q.To) {
		return []series.Observation{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return series.Filter(m.rows, q.Range(), q.Platform), nil
}

// Len returns the number of stored rows
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
