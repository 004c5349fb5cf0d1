package modkit

import (
	"context"

	"trendflow/internal/platform/bus"
	"trendflow/internal/platform/config"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds the shared dependencies handed to every module
// optional backends are nil when disabled, modules must check
type Deps struct {
	Log   *logger.Logger
	Cfg   config.Conf
	PG    store.TxRunner
	CH    store.Clickhouse
	Redis *redis.Client
	Bus   bus.Publisher

	// Guard reports backend health for readiness, nil means always ready
	Guard func(context.Context) error
	// Backends names the configured backends for readiness payloads
	Backends map[string]bool
	// Checks pings each configured backend by name
	Checks map[string]func(context.Context) error
}

// FromStore builds Deps from an opened store
func FromStore(cfg config.Conf, st *store.Store, log *logger.Logger) Deps {
	if log == nil {
		log = logger.Nop()
	}
	d := Deps{Log: log, Cfg: cfg, Bus: bus.Nop{}}
	if st == nil {
		return d
	}
	d.PG = st.PG
	d.CH = st.CH
	d.Redis = st.Redis
	d.Bus = bus.NewNATS(st.NATS)
	d.Guard = st.Guard
	d.Backends = st.Backends()
	d.Checks = st.Checks()
	return d
}

// Logger returns a named child of the deps logger
func (d Deps) Logger(component string) *logger.Logger {
	base := d.Log
	if base == nil {
		base = logger.Nop()
	}
	l := base.With().Str("component", component).Logger()
	return &l
}
