// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"trendflow/internal/modkit"
	phttp "trendflow/internal/platform/net/http"
	metahttp "trendflow/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New constructs a meta module, META_REQUIRED lists backends readiness insists on
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)

	mc := deps.Cfg.Prefix("META_")
	return &Module{b: b, deps: metahttp.Deps{
		ServiceName: mc.MayString("SERVICE_NAME", "trendflow-api"),
		StartedAt:   time.Now(),
		Backends:    deps.Backends,
		Checks:      deps.Checks,
		Required:    mc.MayCSV("REQUIRED", []string{"pg"}),
		Timeout:     mc.MayDuration("READY_TIMEOUT", 2*time.Second),
	}}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(sub phttp.Router) { metahttp.Register(sub, m.deps) })
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.b.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
