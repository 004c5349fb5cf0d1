// Package service validates and routes keyword observations to their backends
package service

import (
	"context"
	"fmt"
	"strings"

	"trendflow/internal/core/keywords"
	"trendflow/internal/core/series"
	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/store"
	"trendflow/internal/services/keywords/domain"
	"trendflow/internal/services/keywords/repo"
)

// Config picks the query backend and the optional clickhouse mirror
type Config struct {
	Backend  domain.Backend
	MirrorCH bool
}

// Service implements domain.Store
type Service struct {
	primary repo.Repo
	mirror  repo.Repo
	cfg     Config
	log     logger.Logger
}

var _ domain.Store = (*Service)(nil)

// New wires the configured backend, pg may be nil when Backend is ch and ch may be nil otherwise
func New(pg repokit.TxRunner, binder repokit.Binder[repo.Repo], ch store.Clickhouse, cfg Config, log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Backend == "" {
		cfg.Backend = domain.BackendPG
	}
	s := &Service{cfg: cfg, log: *log}
	switch cfg.Backend {
	case domain.BackendPG:
		if pg == nil {
			return nil, perr.Disabledf("keywords: postgres backend selected but postgres is not configured")
		}
		s.primary = repokit.MustBind(binder, pg)
		if cfg.MirrorCH && ch != nil {
			s.mirror = repo.NewCH(ch)
		}
	case domain.BackendCH:
		if ch == nil {
			return nil, perr.Disabledf("keywords: clickhouse backend selected but clickhouse is not configured")
		}
		s.primary = repo.NewCH(ch)
	default:
		return nil, perr.InvalidArgf("keywords: unknown backend %q", cfg.Backend)
	}
	return s, nil
}

// Backend returns the query backend in use
func (s *Service) Backend() domain.Backend { return s.cfg.Backend }

// Append validates and stores obs, the batch id on ctx is recorded with every row
// mirror failures are logged and never fail the append
func (s *Service) Append(ctx context.Context, obs ...series.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	if err := Validate(obs); err != nil {
		return err
	}
	batch := logger.BatchID(ctx)
	if err := s.primary.Insert(ctx, batch, obs); err != nil {
		return perr.WithOp(err, "keywords.Append")
	}
	if s.mirror != nil {
		if err := s.mirror.Insert(ctx, batch, obs); err != nil {
			logger.C(ctx).Warn().Err(err).Int("rows", len(obs)).Msg("clickhouse mirror append failed")
		}
	}
	return nil
}

// Query returns the observations in [From, To), an empty or inverted range yields nothing
func (s *Service) Query(ctx context.Context, q domain.Query) ([]series.Observation, error) {
	if !q.To.IsZero() && !q.From.Before(q.To) {
		return []series.Observation{}, nil
	}
	q.Platform = strings.TrimSpace(q.Platform)
	out, err := s.primary.Select(ctx, q)
	if err != nil {
		return nil, perr.WithOp(err, "keywords.Query")
	}
	return out, nil
}

// Validate checks the row invariants, the first bad row is reported with its index
func Validate(obs []series.Observation) error {
	for i, o := range obs {
		field := func(name string) string { return fmt.Sprintf("observations[%d].%s", i, name) }
		switch {
		case strings.TrimSpace(o.Term) == "":
			return perr.WithField(perr.New(perr.ErrorCodeValidation, "term is required"), field("term"))
		case !keywords.IsTerm(o.Term):
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "term %q must be a lower case alphabetic non stop word", o.Term), field("term"))
		case strings.TrimSpace(o.Platform) == "":
			return perr.WithField(perr.New(perr.ErrorCodeValidation, "platform is required"), field("platform"))
		case o.Count < 1:
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "count must be at least 1, got %d", o.Count), field("count"))
		case o.At.IsZero():
			return perr.WithField(perr.New(perr.ErrorCodeValidation, "observation time is required"), field("at"))
		}
	}
	return nil
}
