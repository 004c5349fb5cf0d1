// Package module wires trends into the API using modkit
package module

import (
	"trendflow/internal/modkit"
	perr "trendflow/internal/platform/errors"
	phttp "trendflow/internal/platform/net/http"
	kwdom "trendflow/internal/services/keywords/domain"
	"trendflow/internal/services/trends/cache"
	"trendflow/internal/services/trends/domain"
	trendshttp "trendflow/internal/services/trends/http"
	"trendflow/internal/services/trends/service"
)

// Ports exposed by the trends module
type Ports struct {
	Service domain.Service
	Cache   domain.ModelCache
}

// Upstream holds the ports trends consumes
type Upstream struct {
	Keywords kwdom.Store
}

// Module implements the trends module
type Module struct {
	b     modkit.Built
	ports Ports
}

// New builds the module, the keywords store arrives through modkit.WithPorts(Upstream{...})
func New(deps modkit.Deps, opts Options, mopts ...modkit.Option) (*Module, error) {
	b := modkit.Build([]modkit.Option{modkit.WithName("trends"), modkit.WithPrefix("/trends")}, mopts...)
	up, ok := modkit.PortsAs[Upstream](b)
	if !ok || up.Keywords == nil {
		return nil, perr.InvalidArgf("trends: keywords store port is required")
	}

	co := cache.Options{Size: opts.CacheSize, TTL: opts.ModelTTL}
	if opts.RedisCache {
		co.Redis = deps.Redis
	}
	c := cache.New(co)
	svc := service.New(up.Keywords, c, opts.Service)

	return &Module{b: b, ports: Ports{Service: svc, Cache: c}}, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the trends endpoints under the module prefix
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(sub phttp.Router) { trendshttp.Register(sub, m.ports.Service) })
}
