// @title         TrendFlow API
// @version       0.1.0
// @description   Keyword velocity, trend prediction and dashboard stats

package main

import (
	"context"
	"os/signal"
	"syscall"

	"trendflow/internal/modkit/repokit"
	"trendflow/internal/platform/config"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/platform/net/middleware"
	"trendflow/internal/platform/store"

	"trendflow/internal/services/api"

	"github.com/go-chi/chi/v5"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Panic().Err(err).Msg("load .env failed")
	}

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// open the platform store, postgres is required, the rest is opt in
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st.Guard)

	// http server (reads CORE_API_PORT and timeouts)
	srv := phttp.NewServer(apiCfg, func(m *chi.Mux) {
		m.Use(middleware.Defaults()...)
		if apiCfg.MayBool("METRICS", true) {
			m.Handle("/metrics", metrics.Handler())
		}
	})

	// mount our API
	if _, err := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	); err != nil {
		l.Panic().Err(err).Msg("api.Mount failed")
	}

	// run until signalled
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
