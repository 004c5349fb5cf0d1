package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"trendflow/internal/core/forest"
	"trendflow/internal/core/predict"
	"trendflow/internal/core/series"
	"trendflow/internal/core/velocity"
	perr "trendflow/internal/platform/errors"
	kwdom "trendflow/internal/services/keywords/domain"
	kwsvc "trendflow/internal/services/keywords/service"
	"trendflow/internal/services/trends/cache"
	"trendflow/internal/services/trends/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func obs(term, platform string, count int64, at time.Time) series.Observation {
	return series.Observation{Term: term, Platform: platform, Count: count, At: at}
}

func newSvc(t *testing.T, rows ...series.Observation) (*Service, *cache.Cache) {
	t.Helper()
	c := cache.New(cache.Options{})
	s := New(kwsvc.NewMemory(rows...), c, Config{Predict: predict.Config{Forest: forest.Config{Trees: 10}}})
	s.now = func() time.Time { return now }
	return s, c
}

// history gives four terms six daily rows each inside the training lookback
func history() []series.Observation {
	var out []series.Observation
	for d := 6; d >= 1; d-- {
		at := now.Add(-time.Duration(d) * 24 * time.Hour)
		out = append(out,
			obs("rust", "hackernews", int64(2+d*d), at),
			obs("zig", "hackernews", int64(10-d), at),
			obs("wasm", "news", int64(1+d%2*5), at),
			obs("go", "hackernews", 4, at),
		)
	}
	return out
}

func TestVelocity_ThresholdInclusiveAndUnboundedFirst(t *testing.T) {
	t.Parallel()

	recent := now.Add(-30 * time.Minute)
	base := now.Add(-7*24*time.Hour - 30*time.Minute)
	s, _ := newSvc(t,
		obs("rust", "hackernews", 6, recent), obs("rust", "hackernews", 2, base),
		obs("go", "hackernews", 3, recent),
		obs("zig", "hackernews", 3, recent), obs("zig", "hackernews", 2, base),
		obs("java", "hackernews", 9, base),
		obs("wasm", "news", 5, recent),
	)

	rep, err := s.Velocity(context.Background(), domain.VelocityQuery{Platform: "hackernews"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, rep.Threshold)
	assert.Equal(t, now.Add(-time.Hour), rep.Recent.From)
	assert.Equal(t, now.Add(-7*24*time.Hour), rep.Baseline.To)
	require.Len(t, rep.Signals, 2)
	assert.Equal(t, "go", rep.Signals[0].Term)
	assert.True(t, rep.Signals[0].Velocity.IsUnbounded())
	assert.Equal(t, velocity.Signal{Term: "rust", Velocity: velocity.Finite(2), Recent: 6, Baseline: 2}, rep.Signals[1])

	rep, err = s.Velocity(context.Background(), domain.VelocityQuery{Limit: 10}.WithThreshold(0.5))
	require.NoError(t, err)
	terms := make([]string, len(rep.Signals))
	for i, sg := range rep.Signals {
		terms[i] = sg.Term
	}
	assert.Equal(t, []string{"wasm", "go", "rust", "zig"}, terms)

	rep, err = s.Velocity(context.Background(), domain.VelocityQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rep.Signals, 1)
}

func TestVelocity_ExplicitZeroAndNegativeThresholds(t *testing.T) {
	t.Parallel()

	recent := now.Add(-30 * time.Minute)
	base := now.Add(-7*24*time.Hour - 30*time.Minute)
	s, _ := newSvc(t,
		obs("rust", "hackernews", 11, recent), obs("rust", "hackernews", 10, base),
		obs("go", "hackernews", 10, recent), obs("go", "hackernews", 10, base),
		obs("perl", "hackernews", 5, recent), obs("perl", "hackernews", 10, base),
	)
	ctx := context.Background()

	rep, err := s.Velocity(ctx, domain.VelocityQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, rep.Threshold)
	assert.Empty(t, rep.Signals)

	rep, err = s.Velocity(ctx, domain.VelocityQuery{}.WithThreshold(0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.Threshold)
	terms := make([]string, len(rep.Signals))
	for i, sg := range rep.Signals {
		terms[i] = sg.Term
	}
	assert.Equal(t, []string{"rust", "go"}, terms)

	rep, err = s.Velocity(ctx, domain.VelocityQuery{}.WithThreshold(-0.5))
	require.NoError(t, err)
	assert.Equal(t, -0.5, rep.Threshold)
	assert.Len(t, rep.Signals, 3)

	_, err = s.Velocity(ctx, domain.VelocityQuery{}.WithThreshold(math.NaN()))
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}

func TestNew_ConfiguredZeroThresholdIsKept(t *testing.T) {
	t.Parallel()

	cfg := Config{Velocity: velocity.Config{Threshold: 0, Window: time.Hour, Offset: 7 * 24 * time.Hour}}
	s := New(kwsvc.NewMemory(), cache.New(cache.Options{}), cfg)
	assert.Equal(t, 0.0, s.det.Config().Threshold)
}

func TestVelocity_EmptyStore(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t)
	rep, err := s.Velocity(context.Background(), domain.VelocityQuery{})
	require.NoError(t, err)
	assert.NotNil(t, rep.Signals)
	assert.Empty(t, rep.Signals)
}

func TestTrain_InsufficientIsNotAnError(t *testing.T) {
	t.Parallel()

	s, c := newSvc(t, obs("rust", "hackernews", 1, now.Add(-48*time.Hour)), obs("rust", "hackernews", 3, now.Add(-24*time.Hour)))
	rep, err := s.Train(context.Background(), domain.TrainRequest{})
	require.NoError(t, err)
	assert.False(t, rep.Trained)
	assert.Contains(t, rep.Diagnostic, "not enough data")
	_, ok := c.Get(context.Background(), "")
	assert.False(t, ok)
}

func TestTrain_CachesModel(t *testing.T) {
	t.Parallel()

	s, c := newSvc(t, history()...)
	rep, err := s.Train(context.Background(), domain.TrainRequest{})
	require.NoError(t, err)
	require.True(t, rep.Trained, rep.Diagnostic)
	assert.GreaterOrEqual(t, rep.Rows, 10)
	assert.Equal(t, rep.Rows, rep.TrainRows+rep.TestRows)
	assert.GreaterOrEqual(t, rep.Accuracy, 0.0)
	assert.LessOrEqual(t, rep.Accuracy, 1.0)

	m, ok := c.Get(context.Background(), "")
	require.True(t, ok)
	assert.Equal(t, rep.Accuracy, m.Accuracy)

	// platform scoped training only sees that platform
	rep, err = s.Train(context.Background(), domain.TrainRequest{Platform: "news"})
	require.NoError(t, err)
	assert.False(t, rep.Trained)
}

func TestPredictions_TrainsOnMiss(t *testing.T) {
	t.Parallel()

	s, c := newSvc(t, history()...)
	rep, err := s.Predictions(context.Background(), domain.PredictionQuery{Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, rep.Diagnostic)
	assert.NotNil(t, rep.Predictions)
	assert.LessOrEqual(t, len(rep.Predictions), 2)
	assert.False(t, rep.TrainedAt.IsZero())
	for i := 1; i < len(rep.Predictions); i++ {
		assert.GreaterOrEqual(t, rep.Predictions[i-1].Confidence, rep.Predictions[i].Confidence)
	}
	_, ok := c.Get(context.Background(), "")
	assert.True(t, ok)
}

func TestPredictions_InsufficientDataGivesDiagnostic(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t)
	rep, err := s.Predictions(context.Background(), domain.PredictionQuery{})
	require.NoError(t, err)
	assert.NotNil(t, rep.Predictions)
	assert.Empty(t, rep.Predictions)
	assert.Contains(t, rep.Diagnostic, "not enough data")
}

func TestPredictions_UsesCachedModel(t *testing.T) {
	t.Parallel()

	s, c := newSvc(t, history()...)
	_, err := s.Train(context.Background(), domain.TrainRequest{})
	require.NoError(t, err)
	cached, _ := c.Get(context.Background(), "")

	s.store = errStore{}
	_, err = s.Predictions(context.Background(), domain.PredictionQuery{})
	require.Error(t, err, "inference still reads the store")
	again, _ := c.Get(context.Background(), "")
	assert.Same(t, cached, again, "no retrain on a cache hit")
}

type errStore struct{}

func (errStore) Append(context.Context, ...series.Observation) error { return nil }
func (errStore) Query(context.Context, kwdom.Query) ([]series.Observation, error) {
	return nil, perr.Wrap(errors.New("down"), perr.ErrorCodeDB, "query")
}

func TestStoreErrorsCarryOp(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t)
	s.store = errStore{}

	_, err := s.Velocity(context.Background(), domain.VelocityQuery{})
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, "trends.Velocity", e.Op())
	assert.Equal(t, perr.ErrorCodeDB, e.Code())

	_, err = s.Train(context.Background(), domain.TrainRequest{})
	e, _ = perr.As(err)
	assert.Equal(t, "trends.Train", e.Op())
}

func TestExtract(t *testing.T) {
	t.Parallel()

	s, _ := newSvc(t)
	rep, err := s.Extract(context.Background(), domain.ExtractRequest{Text: "Rust rust and the Zig compiler", TopN: 2})
	require.NoError(t, err)
	require.Len(t, rep.Keywords, 2)
	assert.Equal(t, "rust", rep.Keywords[0].Term)
	assert.Equal(t, 2, rep.Keywords[0].Count)
}
