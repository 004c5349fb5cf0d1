package module

import (
	"time"

	"trendflow/internal/core/features"
	"trendflow/internal/core/forest"
	"trendflow/internal/core/predict"
	"trendflow/internal/core/velocity"
	"trendflow/internal/platform/config"
	"trendflow/internal/services/trends/service"
)

// Options holds the trends settings
type Options struct {
	Service    service.Config
	CacheSize  int
	ModelTTL   time.Duration
	RedisCache bool
}

// FromConfig reads TRENDS_*
func FromConfig(cfg config.Conf) Options {
	t := cfg.Prefix("TRENDS_")
	return Options{
		Service: service.Config{
			Velocity: velocity.Config{
				Threshold: t.MayFloat64("VELOCITY_THRESHOLD", 2.0),
				Window:    t.MayDuration("WINDOW", time.Hour),
				Offset:    t.MayDuration("BASELINE_OFFSET", 7*24*time.Hour),
			},
			Features: features.Config{
				TrainingLookback:  t.MayDays("TRAINING_DAYS", 14),
				InferenceLookback: t.MayDays("INFERENCE_DAYS", 3),
				LabelRatio:        t.MayFloat64("LABEL_RATIO", 1.5),
			},
			Predict: predict.Config{
				MinRows:      t.MayInt("MIN_ROWS", 10),
				TestFraction: t.MayFloat64("TEST_FRACTION", 0.2),
				Seed:         t.MayInt64("SEED", 42),
				Forest:       forest.Config{Trees: t.MayInt("TREES", 100)},
			},
			TopN:            t.MayInt("TOP_N", 10),
			SignalLimit:     t.MayInt("SIGNAL_LIMIT", 20),
			PredictionLimit: t.MayInt("PREDICTION_LIMIT", 10),
		},
		CacheSize:  t.MayInt("CACHE_SIZE", 16),
		ModelTTL:   t.MayDuration("MODEL_TTL", 6*time.Hour),
		RedisCache: t.MayBool("REDIS_CACHE", true),
	}
}
