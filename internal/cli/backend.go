package cli

import (
	"context"
	"sync"

	"trendflow/internal/modkit"
	"trendflow/internal/platform/bus"
	"trendflow/internal/platform/config"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/store"
	cdom "trendflow/internal/services/collector/domain"
	kwdom "trendflow/internal/services/keywords/domain"
	kwmod "trendflow/internal/services/keywords/module"
	retdom "trendflow/internal/services/retention/domain"
	retmod "trendflow/internal/services/retention/module"
	trdom "trendflow/internal/services/trends/domain"
	trendsmod "trendflow/internal/services/trends/module"
)

// Backend opens the configured store on first use and shares it across commands
type Backend struct {
	root config.Conf
	log  *logger.Logger

	mu sync.Mutex
	st *store.Store
}

// NewBackend reads SERVICE_* through root, nothing is dialled until a command needs it
func NewBackend(root config.Conf, log *logger.Logger) *Backend {
	return &Backend{root: root, log: log}
}

// Env returns an Env wired to b
func (b *Backend) Env() *Env {
	return &Env{Trends: b.Trends, Migrate: b.Migrate, Watch: b.Watch, Prune: b.Prune}
}

func (b *Backend) open(ctx context.Context, migrate bool) (*store.Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st != nil {
		return b.st, nil
	}
	cfg := store.ConfigFromEnv(b.root, "cli")
	if migrate {
		cfg.PG.Migrate = true
	}
	st, err := store.Open(ctx, cfg, store.WithLogger(*b.log))
	if err != nil {
		return nil, err
	}
	b.st = st
	return st, nil
}

// Trends builds the trends service over the keyword store
func (b *Backend) Trends(ctx context.Context) (trdom.Service, error) {
	st, err := b.open(ctx, false)
	if err != nil {
		return nil, err
	}
	deps := modkit.FromStore(b.root, st, b.log)
	kw, err := kwmod.New(deps)
	if err != nil {
		return nil, err
	}
	tr, err := trendsmod.New(deps, trendsmod.FromConfig(b.root), modkit.WithPorts(trendsmod.Upstream{
		Keywords: modkit.MustPortsOf[kwdom.Store](kw),
	}))
	if err != nil {
		return nil, err
	}
	return modkit.MustPortsOf[trdom.Service](tr), nil
}

// Migrate opens postgres with migrations forced on and lists the embedded versions
// a store opened earlier in the process is reused as is
func (b *Backend) Migrate(ctx context.Context) ([]string, error) {
	if _, err := b.open(ctx, true); err != nil {
		return nil, err
	}
	all, err := store.Migrations("migrations")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, m := range all {
		out = append(out, m.Version)
	}
	return out, nil
}

// Watch subscribes to batch events until ctx ends
func (b *Backend) Watch(ctx context.Context, fn func(cdom.BatchCollected)) error {
	st, err := b.open(ctx, false)
	if err != nil {
		return err
	}
	if st.NATS == nil {
		return perr.Disabledf("watch: nats is not enabled, set SERVICE_NATS_ENABLED")
	}
	sub, err := bus.Subscribe(st.NATS, bus.SubjectBatchCollected, func(_ context.Context, ev cdom.BatchCollected) { fn(ev) })
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "watch: subscribe")
	}
	<-ctx.Done()
	_ = sub.Unsubscribe()
	return ctx.Err()
}

// Prune runs one retention pass with the configured window
func (b *Backend) Prune(ctx context.Context) (retdom.Report, error) {
	st, err := b.open(ctx, false)
	if err != nil {
		return retdom.Report{}, err
	}
	m, err := retmod.New(modkit.FromStore(b.root, st, b.log), retmod.FromConfig(b.root))
	if err != nil {
		return retdom.Report{}, err
	}
	return modkit.MustPortsOf[retdom.RunnerPort](m).Prune(ctx)
}

// Close releases whatever the commands opened
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st == nil {
		return nil
	}
	err := b.st.Close(ctx)
	b.st = nil
	return err
}
