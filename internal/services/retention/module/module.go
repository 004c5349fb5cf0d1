// Package module wires retention for the collector binary and the cli
package module

import (
	"time"

	"trendflow/internal/modkit"
	"trendflow/internal/platform/config"
	perr "trendflow/internal/platform/errors"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/services/retention/domain"
	"trendflow/internal/services/retention/repo"
	"trendflow/internal/services/retention/service"
)

// Options holds the retention settings
type Options struct {
	Enabled  bool
	Keep     time.Duration
	Interval time.Duration
	CH       bool
}

// FromConfig reads RETENTION_*
// RETENTION_ENABLED (default true) runs the janitor next to the collector scheduler
// RETENTION_KEEP_DAYS (default 90, floor 21) is the history kept in postgres and clickhouse
// RETENTION_INTERVAL (default 24h) is the time between passes
// RETENTION_CLICKHOUSE (default true) also prunes the clickhouse mirror
func FromConfig(cfg config.Conf) Options {
	r := cfg.Prefix("RETENTION_")
	return Options{
		Enabled:  r.MayBool("ENABLED", true),
		Keep:     r.MayDays("KEEP_DAYS", 90),
		Interval: r.MayDuration("INTERVAL", 24*time.Hour),
		CH:       r.MayBool("CLICKHOUSE", true),
	}
}

// Ports exposed by the retention module
type Ports struct {
	Runner  domain.RunnerPort
	Janitor *service.Janitor
}

// Module owns the prune service, it mounts no routes
type Module struct {
	opts  Options
	ports Ports
}

// New builds the module, postgres is required
func New(deps modkit.Deps, opts Options) (*Module, error) {
	if deps.PG == nil {
		return nil, perr.Disabledf("retention: postgres is not configured")
	}
	svc := service.New(deps.PG, repo.NewPG(), deps.CH, service.Config{Keep: opts.Keep, CH: opts.CH})
	return &Module{
		opts:  opts,
		ports: Ports{Runner: svc, Janitor: service.NewJanitor(svc, opts.Interval)},
	}, nil
}

// Enabled reports whether the janitor should run
func (m *Module) Enabled() bool { return m.opts.Enabled }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "retention" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(phttp.Router) {}
