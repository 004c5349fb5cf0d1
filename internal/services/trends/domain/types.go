// Package domain holds the trends request and response types and ports
package domain

import (
	"time"

	"trendflow/internal/core/keywords"
	"trendflow/internal/core/predict"
	"trendflow/internal/core/series"
	"trendflow/internal/core/velocity"
)

// VelocityQuery selects the detection scope
// a nil Threshold and a zero Limit take the configured defaults
type VelocityQuery struct {
	Platform  string   `json:"platform,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// WithThreshold returns q with an explicit threshold, zero included
func (q VelocityQuery) WithThreshold(t float64) VelocityQuery {
	q.Threshold = &t
	return q
}

// VelocityReport is one detection pass
type VelocityReport struct {
	At        time.Time         `json:"at"`
	Platform  string            `json:"platform,omitempty"`
	Threshold float64           `json:"threshold"`
	Recent    series.Range      `json:"recent"`
	Baseline  series.Range      `json:"baseline"`
	Signals   []velocity.Signal `json:"signals"`
}

// TrainRequest scopes a training run, an empty platform trains on every platform
type TrainRequest struct {
	Platform string `json:"platform,omitempty" validate:"omitempty,platform"`
}

// TrainReport is the training outcome, Trained is false when data was insufficient
type TrainReport struct {
	Trained    bool      `json:"trained"`
	Platform   string    `json:"platform,omitempty"`
	Rows       int       `json:"rows"`
	Accuracy   float64   `json:"accuracy"`
	TrainRows  int       `json:"train_rows"`
	TestRows   int       `json:"test_rows"`
	TrainedAt  time.Time `json:"trained_at"`
	Diagnostic string    `json:"diagnostic,omitempty"`
}

// ReportOf converts a predictor outcome
func ReportOf(platform string, out predict.Outcome) TrainReport {
	r := TrainReport{Trained: out.Trained(), Platform: platform, Rows: out.Rows, Diagnostic: out.Diagnostic}
	if m := out.Model; m != nil {
		r.Accuracy = m.Accuracy
		r.TrainRows = m.TrainRows
		r.TestRows = m.TestRows
		r.TrainedAt = m.TrainedAt
	}
	return r
}

// PredictionQuery selects the prediction scope
type PredictionQuery struct {
	Platform string `json:"platform,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// PredictionReport lists terms likely to trend next
// an empty list with a Diagnostic means no model could be trained
type PredictionReport struct {
	Platform    string               `json:"platform,omitempty"`
	Predictions []predict.Prediction `json:"predictions"`
	Accuracy    float64              `json:"model_accuracy"`
	TrainedAt   time.Time            `json:"model_trained_at"`
	Diagnostic  string               `json:"diagnostic,omitempty"`
}

// ExtractRequest is the debug extractor input
type ExtractRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
	TopN int    `json:"top_n" validate:"omitempty,min=1,max=100"`
}

// ExtractReport is the ranked extractor output
type ExtractReport struct {
	Keywords []keywords.TermCount `json:"keywords"`
}
