// Package module wires stats into the API using modkit
package module

import (
	"time"

	"trendflow/internal/modkit"
	perr "trendflow/internal/platform/errors"
	phttp "trendflow/internal/platform/net/http"
	statshttp "trendflow/internal/services/api/stats/http"
	statsrepo "trendflow/internal/services/api/stats/repo"
	statssvc "trendflow/internal/services/api/stats/service"
)

// Module implements the stats module
type Module struct {
	b     modkit.Built
	svc   statssvc.Service
	ports any
}

// New constructs the stats module, it needs postgres
// STATS_TIMEOUT caps each dashboard statement
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	if deps.PG == nil {
		return nil, perr.Disabledf("stats: postgres is not configured")
	}
	b := modkit.Build([]modkit.Option{modkit.WithName("stats"), modkit.WithPrefix("/stats")}, opts...)
	timeout := deps.Cfg.Prefix("STATS_").MayDuration("TIMEOUT", 5*time.Second)

	svc := statssvc.New(deps.PG, statsrepo.NewPG(), timeout)
	return &Module{b: b, svc: svc, ports: adaptStatsPort{svc: svc}}, nil
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(sub phttp.Router) { statshttp.Register(sub, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }
