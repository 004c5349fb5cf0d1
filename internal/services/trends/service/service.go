// Package service runs velocity detection, training and prediction over the keyword store
package service

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"trendflow/internal/core/features"
	"trendflow/internal/core/keywords"
	"trendflow/internal/core/predict"
	"trendflow/internal/core/velocity"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
	kwdom "trendflow/internal/services/keywords/domain"
	"trendflow/internal/services/trends/domain"
)

// Config holds the trends knobs
type Config struct {
	Velocity velocity.Config
	Features features.Config
	Predict  predict.Config
	// TopN is the extractor default for the debug endpoint
	TopN int
	// SignalLimit and PredictionLimit cap responses when the caller sets no limit
	SignalLimit     int
	PredictionLimit int
}

func (c Config) withDefaults() Config {
	// an unset velocity config is the default one, a set threshold of 0 is kept
	if c.Velocity == (velocity.Config{}) {
		c.Velocity = velocity.DefaultConfig()
	}
	if c.TopN <= 0 {
		c.TopN = 10
	}
	if c.SignalLimit <= 0 {
		c.SignalLimit = 20
	}
	if c.PredictionLimit <= 0 {
		c.PredictionLimit = 10
	}
	return c
}

// Service implements domain.Service
type Service struct {
	store kwdom.Store
	cache domain.ModelCache
	ex    *keywords.Extractor
	det   *velocity.Detector
	fb    *features.Builder
	pr    *predict.Predictor
	cfg   Config
	now   func() time.Time

	// one training per scope at a time
	trainMu sync.Mutex
	log     logger.Logger
}

var _ domain.Service = (*Service)(nil)

// New wires the service, store and cache are required
func New(store kwdom.Store, cache domain.ModelCache, cfg Config) *Service {
	if store == nil || cache == nil {
		panic("trends.Service requires a keyword store and a model cache")
	}
	cfg = cfg.withDefaults()
	return &Service{
		store: store,
		cache: cache,
		ex:    keywords.Default(),
		det:   velocity.New(cfg.Velocity),
		fb:    features.NewBuilder(cfg.Features),
		pr:    predict.New(cfg.Predict),
		cfg:   cfg,
		now:   time.Now,
		log:   *logger.Named("trends"),
	}
}

// Velocity compares the last window with the same window a week earlier
func (s *Service) Velocity(ctx context.Context, q domain.VelocityQuery) (domain.VelocityReport, error) {
	det := s.det
	if q.Threshold != nil {
		t := *q.Threshold
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return domain.VelocityReport{}, perr.InvalidArgf("trends: threshold must be a finite number")
		}
		if t != det.Config().Threshold {
			c := det.Config()
			c.Threshold = t
			det = velocity.New(c)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.SignalLimit
	}

	now := s.now().UTC()
	recentR, baseR := det.Windows(now)
	platform := strings.TrimSpace(q.Platform)

	recent, err := s.store.Query(ctx, kwdom.QueryOf(recentR, platform))
	if err != nil {
		return domain.VelocityReport{}, perr.WithOp(err, "trends.Velocity")
	}
	baseline, err := s.store.Query(ctx, kwdom.QueryOf(baseR, platform))
	if err != nil {
		return domain.VelocityReport{}, perr.WithOp(err, "trends.Velocity")
	}

	signals := det.Detect(recent, baseline)
	metrics.TrendSignals.Observe(float64(len(signals)))
	return domain.VelocityReport{
		At:        now,
		Platform:  platform,
		Threshold: det.Config().Threshold,
		Recent:    recentR,
		Baseline:  baseR,
		Signals:   velocity.Top(signals, limit),
	}, nil
}

// Train fits a model on the training lookback and caches it
// too little data is a normal outcome reported with Trained false
func (s *Service) Train(ctx context.Context, req domain.TrainRequest) (domain.TrainReport, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()
	rep, _, err := s.train(ctx, strings.TrimSpace(req.Platform))
	return rep, err
}

func (s *Service) train(ctx context.Context, platform string) (domain.TrainReport, *predict.Model, error) {
	r := s.fb.Config().Range(features.Training, s.now().UTC())
	obs, err := s.store.Query(ctx, kwdom.QueryOf(r, platform))
	if err != nil {
		metrics.TrendTrainings.WithLabelValues("error").Inc()
		return domain.TrainReport{}, nil, perr.WithOp(err, "trends.Train")
	}

	out := s.pr.Train(s.fb.Training(obs))
	if !out.Trained() {
		metrics.TrendTrainings.WithLabelValues("insufficient").Inc()
		s.log.Info().Str("platform", platform).Int("rows", out.Rows).Msg(out.Diagnostic)
		return domain.ReportOf(platform, out), nil, nil
	}

	s.cache.Put(ctx, platform, out.Model)
	metrics.TrendTrainings.WithLabelValues("trained").Inc()
	metrics.TrendModelAccuracy.Set(out.Model.Accuracy)
	s.log.Info().
		Str("platform", platform).
		Int("rows", out.Rows).
		Float64("accuracy", out.Model.Accuracy).
		Msg("trend model trained")
	return domain.ReportOf(platform, out), out.Model, nil
}

// Predictions classifies the inference rows with the cached model, training one on a miss
func (s *Service) Predictions(ctx context.Context, q domain.PredictionQuery) (domain.PredictionReport, error) {
	platform := strings.TrimSpace(q.Platform)
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.PredictionLimit
	}
	rep := domain.PredictionReport{Platform: platform, Predictions: []predict.Prediction{}}

	m, ok := s.cache.Get(ctx, platform)
	if !ok {
		s.trainMu.Lock()
		// a concurrent request may have trained while we waited
		if m, ok = s.cache.Get(ctx, platform); !ok {
			tr, fresh, err := s.train(ctx, platform)
			if err != nil {
				s.trainMu.Unlock()
				return rep, perr.WithOp(err, "trends.Predictions")
			}
			if fresh == nil {
				s.trainMu.Unlock()
				rep.Diagnostic = tr.Diagnostic
				return rep, nil
			}
			m = fresh
		}
		s.trainMu.Unlock()
	}

	r := s.fb.Config().Range(features.Inference, s.now().UTC())
	obs, err := s.store.Query(ctx, kwdom.QueryOf(r, platform))
	if err != nil {
		return rep, perr.WithOp(err, "trends.Predictions")
	}
	rep.Predictions = predict.Predict(m, s.fb.Inference(obs), limit)
	rep.Accuracy = m.Accuracy
	rep.TrainedAt = m.TrainedAt
	return rep, nil
}

// Extract runs the keyword extractor on free text
func (s *Service) Extract(_ context.Context, req domain.ExtractRequest) (domain.ExtractReport, error) {
	n := req.TopN
	if n <= 0 {
		n = s.cfg.TopN
	}
	return domain.ExtractReport{Keywords: s.ex.Counts(req.Text, n)}, nil
}
