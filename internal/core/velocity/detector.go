package velocity

import (
	"math"
	"sort"
	"time"

	"trendflow/internal/core/series"
)

// Signal is one trending term with both window counts
type Signal struct {
	Term     string   `json:"term"`
	Velocity Velocity `json:"velocity"`
	Recent   int64    `json:"recent_count"`
	Baseline int64    `json:"baseline_count"`
}

// Config holds the detector knobs
type Config struct {
	// Threshold is the inclusive minimum finite velocity, 2.0 means 200% growth
	// any finite value is used as given, 0 keeps flat terms and negatives keep shrinking ones
	Threshold float64
	// Window is the length of both the recent and the baseline window
	Window time.Duration
	// Offset is how far back the baseline window sits
	Offset time.Duration
}

// DefaultConfig returns a 1h window compared against the same hour a week earlier
func DefaultConfig() Config {
	return Config{
		Threshold: 2.0,
		Window:    time.Hour,
		Offset:    7 * 24 * time.Hour,
	}
}

// Detector is a rule based trend ranker, it needs no training data
type Detector struct {
	cfg Config
}

// New builds a Detector
// a non finite Threshold and non positive windows take their defaults
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0) {
		cfg.Threshold = def.Threshold
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Offset <= 0 {
		cfg.Offset = def.Offset
	}
	return &Detector{cfg: cfg}
}

// Config returns the effective configuration
func (d *Detector) Config() Config { return d.cfg }

// Windows returns the recent and baseline ranges for a reference time
func (d *Detector) Windows(now time.Time) (recent, baseline series.Range) {
	recent = series.Range{From: now.Add(-d.cfg.Window), To: now}
	base := now.Add(-d.cfg.Offset)
	baseline = series.Range{From: base.Add(-d.cfg.Window), To: base}
	return recent, baseline
}

// Detect ranks the terms of the recent window against the baseline window
// terms seen only in the baseline are not reported
func (d *Detector) Detect(recent, baseline []series.Observation) []Signal {
	rc := series.SumByTerm(recent)
	bc := series.SumByTerm(baseline)

	out := make([]Signal, 0, len(rc))
	for term, r := range rc {
		b := bc[term]
		v := Between(r, b)
		if r <= 0 || !v.AtLeast(d.cfg.Threshold) {
			continue
		}
		out = append(out, Signal{Term: term, Velocity: v, Recent: r, Baseline: b})
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Velocity.Compare(out[j].Velocity); c != 0 {
			return c > 0
		}
		if out[i].Recent != out[j].Recent {
			return out[i].Recent > out[j].Recent
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// Top truncates signals to n, n <= 0 keeps everything
func Top(signals []Signal, n int) []Signal {
	if n <= 0 || len(signals) <= n {
		return signals
	}
	return signals[:n]
}
