package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trendflow/internal/modkit"
	"trendflow/internal/modkit/repokit"
	"trendflow/internal/platform/config"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
	"trendflow/internal/platform/store"
	"trendflow/internal/platform/supervise"

	cdom "trendflow/internal/services/collector/domain"
	collectormod "trendflow/internal/services/collector/module"
	csvc "trendflow/internal/services/collector/service"
	kwdom "trendflow/internal/services/keywords/domain"
	kwmod "trendflow/internal/services/keywords/module"
	retmod "trendflow/internal/services/retention/module"
	retsvc "trendflow/internal/services/retention/service"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Panic().Err(err).Msg("load .env failed")
	}
	root := config.New()
	l := logger.Get()

	var (
		fMode     = flag.String("mode", "loop", "collector mode: loop | once")
		fInterval = flag.Duration("interval", 0, "time between runs in loop mode (default COLLECTOR_INTERVAL or 1h)")
	)
	flag.Parse()

	mode := strings.ToLower(strings.TrimSpace(*fMode))
	if mode != "loop" && mode != "once" {
		l.Panic().Str("mode", *fMode).Msg("-mode must be loop or once")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "collector"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st.Guard)

	deps := modkit.FromStore(root, st, l)

	kw, err := kwmod.New(deps)
	if err != nil {
		l.Panic().Err(err).Msg("keywords module")
	}

	opts := collectormod.FromConfig(root)
	if *fInterval > 0 {
		opts.Interval = *fInterval
	}
	col, err := collectormod.New(deps, opts, modkit.WithPorts(cdom.Upstream{
		Keywords: modkit.MustPortsOf[kwdom.Store](kw),
	}))
	if err != nil {
		l.Panic().Err(err).Msg("collector module")
	}

	ret, err := retmod.New(deps, retmod.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("retention module")
	}

	if mode == "once" {
		runOnce(ctx, l, modkit.MustPortsOf[cdom.RunnerPort](col))
		return
	}

	sup := supervise.New("trendflow-collector", supervise.FromConfig(root.Prefix("COLLECTOR_SUPERVISOR_")), l)
	sup.Add(modkit.MustPortsOf[*csvc.Scheduler](col))
	if ret.Enabled() {
		sup.Add(modkit.MustPortsOf[*retsvc.Janitor](ret))
	}
	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		sup.Add(supervise.NewHTTPService("collector-metrics", &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}, 5*time.Second))
	}

	l.Info().Dur("interval", opts.Interval).Str("metrics", opts.MetricsAddr).Msg("collector starting")
	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Panic().Err(err).Msg("collector supervisor stopped")
	}
	l.Info().Msg("collector stopped")
}

func runOnce(ctx context.Context, l *logger.Logger, r cdom.RunnerPort) {
	rep, err := r.RunOnce(ctx)
	if err != nil {
		l.Panic().Err(err).Str("batch_id", rep.ID).Msg("collection failed")
	}
	l.Info().
		Str("batch_id", rep.ID).
		Int("stories", rep.Stories).
		Int("articles", rep.Articles).
		Int("observations", rep.TotalObservations()).
		Bool("partial", rep.Partial()).
		Strs("failed", csvc.FailedSources(rep)).
		Strs("disabled", rep.Disabled).
		Msg("collection finished")
}
