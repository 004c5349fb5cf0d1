// Package service prunes rows that no detector or model window can reach anymore
package service

import (
	"context"
	"time"

	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/store"
	"trendflow/internal/services/retention/domain"
	"trendflow/internal/services/retention/repo"
)

// MinKeep covers the training lookback plus the velocity baseline week
const MinKeep = 21 * 24 * time.Hour

// Config controls how much history survives a prune
type Config struct {
	// Keep is the retained history, values under MinKeep are raised to it
	Keep time.Duration
	// CH also prunes the clickhouse mirror when a client is set
	CH bool
}

// Service deletes aged rows in one transaction per pass
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.StorageRepo]
	ch     store.Clickhouse
	keep   time.Duration
	now    func() time.Time
	log    logger.Logger
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the service, ch may be nil
func New(db repokit.TxRunner, binder repokit.Binder[domain.StorageRepo], ch store.Clickhouse, cfg Config) *Service {
	if db == nil {
		panic("retention.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("retention.Service requires a non nil Repo binder")
	}
	keep := cfg.Keep
	if keep < MinKeep {
		keep = MinKeep
	}
	if !cfg.CH {
		ch = nil
	}
	return &Service{db: db, binder: binder, ch: ch, keep: keep, now: time.Now, log: *logger.Named("retention")}
}

// Keep returns the effective retention window
func (s *Service) Keep() time.Duration { return s.keep }

// Prune deletes every row older than the retention window, cut at the hour
// the postgres deletes commit together, a clickhouse failure is reported after they land
func (s *Service) Prune(ctx context.Context) (domain.Report, error) {
	cutoff := s.now().UTC().Add(-s.keep).Truncate(time.Hour)
	rep := domain.Report{Cutoff: cutoff, Deleted: make(map[domain.Table]int64, len(domain.Tables))}

	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		for _, t := range domain.Tables {
			n, err := r.Prune(ctx, t, cutoff)
			if err != nil {
				return err
			}
			rep.Deleted[t] = n
		}
		return nil
	})
	if err != nil {
		return domain.Report{Cutoff: cutoff}, perr.WithOp(err, "retention.Prune")
	}

	if s.ch != nil {
		if err := repo.PruneCH(ctx, s.ch, cutoff); err != nil {
			return rep, perr.WithOp(err, "retention.Prune")
		}
		rep.CH = true
	}

	s.log.Info().Time("cutoff", cutoff).Int64("deleted", rep.Total()).Bool("clickhouse", rep.CH).Msg("retention pass done")
	return rep, nil
}
