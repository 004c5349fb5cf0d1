package service

import (
	"context"
	"time"

	"trendflow/internal/platform/logger"
	"trendflow/internal/services/collector/domain"
)

// Scheduler runs a batch immediately and then every Interval until ctx is done
// it implements suture.Service, a failed run is logged and the loop goes on
type Scheduler struct {
	Runner   domain.RunnerPort
	Interval time.Duration
	// OnReport observes every finished run
	OnReport func(domain.BatchReport, error)

	log logger.Logger
}

// NewScheduler builds a scheduler, a non positive interval means one hour
func NewScheduler(r domain.RunnerPort, every time.Duration) *Scheduler {
	if every <= 0 {
		every = time.Hour
	}
	return &Scheduler{Runner: r, Interval: every, log: *logger.Named("collector.scheduler")}
}

// Serve implements suture.Service
func (s *Scheduler) Serve(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.log.Info().Dur("interval", s.Interval).Msg("collector scheduler started")
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.log.Info().Msg("collector scheduler stopping")
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	rep, err := s.Runner.RunOnce(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Str("batch_id", rep.ID).Msg("scheduled collection failed, waiting for next interval")
	}
	if s.OnReport != nil {
		s.OnReport(rep, err)
	}
}

// String names the service in supervisor events
func (s *Scheduler) String() string { return "collector-scheduler" }
