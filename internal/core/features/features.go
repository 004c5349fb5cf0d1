// Package features reshapes keyword observations into per term, per day rows
// for the trend predictor. Training and inference share one transform.
package features

import (
	"time"

	"trendflow/internal/core/series"
)

// Width is the length of Row.Vector
const Width = 4

// Mode selects which rows Build emits
type Mode uint8

const (
	// Training emits labeled rows for every day that has a next day
	Training Mode = iota
	// Inference emits one unlabeled row per term from its latest two days
	Inference
)

func (m Mode) String() string {
	switch m {
	case Training:
		return "training"
	case Inference:
		return "inference"
	default:
		return "unknown"
	}
}

// minDays is the history a term needs before it yields a row
func (m Mode) minDays() int {
	if m == Training {
		return 3
	}
	return 2
}

// Row is one engineered data point
type Row struct {
	Term      string    `json:"term"`
	Day       time.Time `json:"day"`
	Current   int64     `json:"current_count"`
	Previous  int64     `json:"previous_count"`
	Velocity  float64   `json:"velocity"`
	DayOfWeek int       `json:"day_of_week"`
}

// Vector returns [current, previous, velocity, day of week]
func (r Row) Vector() []float64 {
	return []float64{float64(r.Current), float64(r.Previous), r.Velocity, float64(r.DayOfWeek)}
}

// Labeled is a training row with its next day outcome
type Labeled struct {
	Row
	Trend bool `json:"will_trend"`
}

// Config holds lookbacks and the label rule
type Config struct {
	TrainingLookback  time.Duration
	InferenceLookback time.Duration
	// LabelRatio marks a row as trending when next > current * LabelRatio
	LabelRatio float64
}

// DefaultConfig is 14 training days, 3 inference days and a 50% jump label
func DefaultConfig() Config {
	return Config{
		TrainingLookback:  14 * 24 * time.Hour,
		InferenceLookback: 3 * 24 * time.Hour,
		LabelRatio:        1.5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TrainingLookback <= 0 {
		c.TrainingLookback = def.TrainingLookback
	}
	if c.InferenceLookback <= 0 {
		c.InferenceLookback = def.InferenceLookback
	}
	if c.LabelRatio <= 0 {
		c.LabelRatio = def.LabelRatio
	}
	return c
}

// Range is the store query window for mode as of now
func (c Config) Range(mode Mode, now time.Time) series.Range {
	c = c.withDefaults()
	back := c.TrainingLookback
	if mode == Inference {
		back = c.InferenceLookback
	}
	return series.Since(now.Add(-back))
}

// Builder turns observations into rows
type Builder struct {
	cfg Config
}

// NewBuilder returns a builder, zero config fields take their defaults
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration
func (b *Builder) Config() Config { return b.cfg }

// Training returns labeled rows ordered by term then day
// terms with fewer than 3 days are skipped
func (b *Builder) Training(obs []series.Observation) []Labeled {
	var out []Labeled
	b.each(obs, Training, func(term string, d series.Days) {
		for i := 0; i < d.Len()-2; i++ {
			r := rowAt(term, d, i)
			next := float64(d.Counts[i+1])
			out = append(out, Labeled{Row: r, Trend: next > float64(r.Current)*b.cfg.LabelRatio})
		}
	})
	return out
}

// Inference returns one row per term from its latest two days, ordered by term
// terms with fewer than 2 days are skipped
func (b *Builder) Inference(obs []series.Observation) []Row {
	var out []Row
	b.each(obs, Inference, func(term string, d series.Days) {
		out = append(out, rowAt(term, d, d.Len()-1))
	})
	return out
}

func (b *Builder) each(obs []series.Observation, mode Mode, fn func(string, series.Days)) {
	daily := series.Daily(obs)
	for _, term := range series.Terms(daily) {
		d := daily[term]
		if d.Len() < mode.minDays() {
			continue
		}
		fn(term, d)
	}
}

// rowAt builds the row for day i, previous is the prior tracked day or 0
func rowAt(term string, d series.Days, i int) Row {
	cur := d.Counts[i]
	var prev int64
	if i > 0 {
		prev = d.Counts[i-1]
	}
	var vel float64
	if prev > 0 {
		vel = float64(cur-prev) / float64(prev)
	}
	return Row{
		Term:      term,
		Day:       d.Dates[i],
		Current:   cur,
		Previous:  prev,
		Velocity:  vel,
		DayOfWeek: series.Weekday(d.Dates[i]),
	}
}
