// Package store provides a unified interface to optional storage backends
package store

import (
	"context"
	"errors"
	"fmt"

	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/store/pg"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Store is the facade for optional backends
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// PG is the postgres sql seam, nil when disabled
	PG TxRunner

	// CH is the clickhouse seam, nil when disabled
	CH Clickhouse

	// Redis backs shared caches, nil when disabled
	Redis *redis.Client

	// NATS carries batch events, nil when disabled
	NATS *nats.Conn
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is a tiny seam for columnar writes and queries
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: *logger.Nop()}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.Enabled {
		a, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = a
		if cfg.PG.Migrate {
			if err := Migrate(ctx, s.PG, s.Log); err != nil {
				_ = s.Close(ctx)
				return nil, err
			}
		}
	}

	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = c
		if err := MigrateCH(ctx, s.CH); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}

	if cfg.RDS.Enabled {
		r, err := openRedis(ctx, cfg.RDS)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Redis = r
	}

	if cfg.NATS.Enabled {
		n, err := openNATS(cfg, s.Log)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.NATS = n
	}

	s.Log.Info().
		Bool("pg", s.PG != nil).
		Bool("ch", s.CH != nil).
		Bool("redis", s.Redis != nil).
		Bool("nats", s.NATS != nil).
		Msg("store opened")
	return s, nil
}

// FromPool builds a Store whose PG seam runs on pool, used by tests with pgxmock
func FromPool(pool pg.Pool, opts ...Option) *Store {
	s := &Store{Log: *logger.Nop()}
	for _, o := range opts {
		_ = o(s)
	}
	s.PG = newPGAdapter(pg.Wrap(pool, nil, 0))
	return s
}

// Guard verifies every configured backend answers
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	checks := s.Checks()
	var errs []error
	for _, name := range []string{"pg", "ch", "redis", "nats"} {
		if c, ok := checks[name]; ok {
			if err := c(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Checks returns a ping per configured backend keyed by backend name
func (s *Store) Checks() map[string]func(context.Context) error {
	out := map[string]func(context.Context) error{}
	if s == nil {
		return out
	}
	if p, ok := s.PG.(Pinger); ok {
		out["pg"] = p.Ping
	}
	if p, ok := s.CH.(Pinger); ok {
		out["ch"] = p.Ping
	}
	if s.Redis != nil {
		out["redis"] = func(ctx context.Context) error { return s.Redis.Ping(ctx).Err() }
	}
	if s.NATS != nil {
		out["nats"] = func(context.Context) error {
			if !s.NATS.IsConnected() {
				return fmt.Errorf("%s", s.NATS.Status())
			}
			return nil
		}
	}
	return out
}

// Backends reports which seams are live, for readiness payloads
func (s *Store) Backends() map[string]bool {
	if s == nil {
		return map[string]bool{}
	}
	return map[string]bool{
		"pg":    s.PG != nil,
		"ch":    s.CH != nil,
		"redis": s.Redis != nil,
		"nats":  s.NATS != nil,
	}
}

// Close closes all initialized backends gracefully
// nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	var errs []error

	if s.NATS != nil {
		if err := s.NATS.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.CH != nil {
		if err := s.CH.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
