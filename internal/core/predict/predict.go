// Package predict trains and applies the next day trend classifier
package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"trendflow/internal/core/features"
	"trendflow/internal/core/forest"
)

// Config holds training knobs
type Config struct {
	// MinRows is the labeled row floor below which training is refused
	MinRows int
	// TestFraction is the held out share used for accuracy
	TestFraction float64
	Seed         int64
	Forest       forest.Config
}

// DefaultConfig is a 10 row floor, an 80/20 split and seed 42
func DefaultConfig() Config {
	return Config{
		MinRows:      10,
		TestFraction: 0.2,
		Seed:         42,
		Forest:       forest.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinRows <= 0 {
		c.MinRows = def.MinRows
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		c.TestFraction = def.TestFraction
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	if c.Forest.Trees <= 0 {
		c.Forest.Trees = def.Forest.Trees
	}
	if c.Forest.Seed == 0 {
		c.Forest.Seed = c.Seed
	}
	return c
}

// Model is a trained classifier with its provenance
type Model struct {
	Forest    *forest.Forest `json:"forest"`
	Accuracy  float64        `json:"accuracy"`
	TrainRows int            `json:"train_rows"`
	TestRows  int            `json:"test_rows"`
	TrainedAt time.Time      `json:"trained_at"`
}

// Outcome is the result of a training run
// Insufficient is set instead of Model when there are too few rows
type Outcome struct {
	Model        *Model `json:"model,omitempty"`
	Insufficient bool   `json:"insufficient"`
	Diagnostic   string `json:"diagnostic,omitempty"`
	Rows         int    `json:"rows"`
}

// Trained reports whether the outcome carries a model
func (o Outcome) Trained() bool { return o.Model != nil }

// Prediction is one positively classified term
type Prediction struct {
	Term       string    `json:"term"`
	Day        time.Time `json:"day"`
	Confidence float64   `json:"confidence"`
	Current    int64     `json:"current_count"`
	Previous   int64     `json:"previous_count"`
	Velocity   float64   `json:"velocity"`
}

// Percent returns the confidence on a 0..100 scale
func (p Prediction) Percent() float64 { return math.Round(p.Confidence*1000) / 10 }

// Predictor trains models, it keeps no state between calls
type Predictor struct {
	cfg Config
	now func() time.Time
}

// New returns a predictor, zero config fields take their defaults
func New(cfg Config) *Predictor {
	return &Predictor{cfg: cfg.withDefaults(), now: time.Now}
}

// Config returns the effective configuration
func (p *Predictor) Config() Config { return p.cfg }

// Train fits a model on rows or reports that there is not enough data
func (p *Predictor) Train(rows []features.Labeled) Outcome {
	n := len(rows)
	if n < p.cfg.MinRows {
		return Outcome{
			Insufficient: true,
			Rows:         n,
			Diagnostic:   fmt.Sprintf("not enough data to train: %d labeled rows, need at least %d", n, p.cfg.MinRows),
		}
	}

	perm := rand.New(rand.NewSource(p.cfg.Seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * p.cfg.TestFraction))
	if nTest >= n {
		nTest = n - 1
	}
	test, train := perm[:nTest], perm[nTest:]

	X := make([][]float64, len(train))
	y := make([]bool, len(train))
	for i, k := range train {
		X[i] = rows[k].Vector()
		y[i] = rows[k].Trend
	}
	f := forest.Fit(X, y, p.cfg.Forest)

	eval := test
	if len(eval) == 0 {
		eval = train
	}
	correct := 0
	for _, k := range eval {
		if got, _ := f.Predict(rows[k].Vector()); got == rows[k].Trend {
			correct++
		}
	}

	return Outcome{
		Rows: n,
		Model: &Model{
			Forest:    f,
			Accuracy:  float64(correct) / float64(len(eval)),
			TrainRows: len(train),
			TestRows:  len(test),
			TrainedAt: p.now().UTC(),
		},
	}
}

// Predict scores rows and returns the positives, most confident first, at most topN
// topN <= 0 keeps every positive. It panics if model was trained on another width.
func Predict(m *Model, rows []features.Row, topN int) []Prediction {
	out := make([]Prediction, 0)
	if m == nil || m.Forest == nil {
		return out
	}
	for _, r := range rows {
		ok, prob := m.Forest.Predict(r.Vector())
		if !ok {
			continue
		}
		out = append(out, Prediction{
			Term:       r.Term,
			Day:        r.Day,
			Confidence: prob,
			Current:    r.Current,
			Previous:   r.Previous,
			Velocity:   r.Velocity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Term < out[j].Term
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Marshal encodes the model for a cache or file
func (m *Model) Marshal() ([]byte, error) { return json.Marshal(m) }

// Unmarshal decodes a model written by Marshal
func Unmarshal(b []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("predict: decode model: %w", err)
	}
	if m.Forest == nil || m.Forest.Width != features.Width {
		return nil, fmt.Errorf("predict: model has no forest for %d features", features.Width)
	}
	return &m, nil
}
