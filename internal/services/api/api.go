// Package api provides the HTTP API for the application
package api

import (
	"trendflow/internal/platform/config"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/platform/store"

	"trendflow/internal/modkit"
	"trendflow/internal/modkit/httpkit"
	"trendflow/internal/modkit/swaggerkit"

	metamod "trendflow/internal/services/api/meta/module"
	statsmod "trendflow/internal/services/api/stats/module"
	kwdom "trendflow/internal/services/keywords/domain"
	kwmod "trendflow/internal/services/keywords/module"
	trendsmod "trendflow/internal/services/trends/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
// modules whose backend is not configured are skipped with a warning
func Mount(r phttp.Router, opt Options) ([]modkit.Module, error) {
	log := opt.Logger
	if log == nil {
		log = logger.Nop()
	}
	deps := modkit.FromStore(opt.Config, opt.Store, log)

	// keywords owns the store the trends module reads
	kw, err := kwmod.New(deps)
	if err != nil {
		return nil, err
	}
	kwStore := modkit.MustPortsOf[kwdom.Store](kw)

	trends, err := trendsmod.New(deps, trendsmod.FromConfig(deps.Cfg),
		modkit.WithPorts(trendsmod.Upstream{Keywords: kwStore}),
	)
	if err != nil {
		return nil, err
	}

	mods := []modkit.Module{metamod.New(deps), kw, trends}

	stats, err := statsmod.New(deps)
	switch {
	case err == nil:
		mods = append(mods, stats)
	case perr.IsCode(err, perr.ErrorCodeDisabled):
		log.Warn().Err(err).Msg("stats module skipped")
	default:
		return nil, err
	}

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(deps.Cfg.Prefix("CORE_API_")), func(api httpkit.Router) {
		modkit.MountAll(api, mods...)
	})
	for _, m := range mods {
		log.Debug().Str("module", m.Name()).Msg("module mounted")
	}
	return mods, nil
}
