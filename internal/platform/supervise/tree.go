// Package supervise runs long lived services under a suture supervisor
package supervise

import (
	"time"

	"trendflow/internal/platform/config"
	"trendflow/internal/platform/logger"

	"github.com/thejerf/suture/v4"
)

// Config holds the restart policy of a tree
type Config struct {
	// FailureThreshold is the failure count that triggers backoff
	FailureThreshold float64
	// FailureDecay is the decay rate of failures in seconds
	FailureDecay float64
	// FailureBackoff is the pause once the threshold is crossed
	FailureBackoff time.Duration
	// ShutdownTimeout bounds each service stop
	ShutdownTimeout time.Duration
}

// DefaultConfig matches the suture defaults
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// FromConfig reads FAILURE_THRESHOLD, FAILURE_DECAY, FAILURE_BACKOFF and SHUTDOWN_TIMEOUT
func FromConfig(c config.Conf) Config {
	def := DefaultConfig()
	return Config{
		FailureThreshold: c.MayFloat64("FAILURE_THRESHOLD", def.FailureThreshold),
		FailureDecay:     c.MayFloat64("FAILURE_DECAY", def.FailureDecay),
		FailureBackoff:   c.MayDuration("FAILURE_BACKOFF", def.FailureBackoff),
		ShutdownTimeout:  c.MayDuration("SHUTDOWN_TIMEOUT", def.ShutdownTimeout),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = def.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = def.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}

// New returns a root supervisor whose events go to log
func New(name string, cfg Config, log *logger.Logger) *suture.Supervisor {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return suture.New(name, suture.Spec{
		EventHook:        Hook(log),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})
}

// Hook logs supervisor events, panics and terminations at error level
func Hook(log *logger.Logger) suture.EventHook {
	return func(e suture.Event) {
		ev := log.Info()
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
			ev = log.Error()
		case suture.EventTypeBackoff, suture.EventTypeStopTimeout:
			ev = log.Warn()
		}
		ev.Fields(e.Map()).Msg(e.String())
	}
}
