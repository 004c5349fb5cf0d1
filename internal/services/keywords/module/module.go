// Package module wires the keyword frequency store for the api and the collector
package module

import (
	"strings"

	"trendflow/internal/modkit"
	"trendflow/internal/platform/config"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/services/keywords/domain"
	"trendflow/internal/services/keywords/repo"
	"trendflow/internal/services/keywords/service"
)

// Ports exposed by the keywords module
type Ports struct {
	Store domain.Store
}

// Options holds the keywords settings
type Options struct {
	Backend  domain.Backend
	MirrorCH bool
}

// FromConfig reads KEYWORDS_BACKEND (pg or ch) and KEYWORDS_MIRROR_CH
func FromConfig(cfg config.Conf) Options {
	kc := cfg.Prefix("KEYWORDS_")
	return Options{
		Backend:  domain.Backend(strings.ToLower(kc.MayEnum("BACKEND", "pg", "pg", "ch"))),
		MirrorCH: kc.MayBool("MIRROR_CH", true),
	}
}

// Module owns the store, it mounts no routes
type Module struct {
	ports Ports
}

// New builds the module from the shared deps
func New(deps modkit.Deps) (*Module, error) {
	o := FromConfig(deps.Cfg)
	svc, err := service.New(deps.PG, repo.NewPG(), deps.CH, service.Config{
		Backend:  o.Backend,
		MirrorCH: o.MirrorCH,
	}, deps.Logger("keywords"))
	if err != nil {
		return nil, err
	}
	return &Module{ports: Ports{Store: svc}}, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "keywords" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(phttp.Router) {}
