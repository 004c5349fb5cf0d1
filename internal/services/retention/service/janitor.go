package service

import (
	"context"
	"time"

	"trendflow/internal/platform/logger"
	"trendflow/internal/services/retention/domain"
)

// Janitor prunes on start and then every Interval, it implements suture.Service
type Janitor struct {
	Runner   domain.RunnerPort
	Interval time.Duration

	log logger.Logger
}

// NewJanitor builds a janitor, a non positive interval means daily
func NewJanitor(r domain.RunnerPort, every time.Duration) *Janitor {
	if every <= 0 {
		every = 24 * time.Hour
	}
	return &Janitor{Runner: r, Interval: every, log: *logger.Named("retention.janitor")}
}

// Serve implements suture.Service
func (j *Janitor) Serve(ctx context.Context) error {
	t := time.NewTicker(j.Interval)
	defer t.Stop()
	for {
		if _, err := j.Runner.Prune(ctx); err != nil && ctx.Err() == nil {
			j.log.Error().Err(err).Msg("retention pass failed, waiting for next interval")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// String names the service in supervisor events
func (j *Janitor) String() string { return "retention-janitor" }
