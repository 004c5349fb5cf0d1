// Package http provides http transport for trends
package http

import (
	stdhttp "net/http"

	"trendflow/internal/modkit/httpkit"
	"trendflow/internal/services/trends/domain"
)

// Register mounts trends endpoints on the given router
func Register(r httpkit.Router, s domain.Service) {
	h := &handlers{svc: s}

	// terms accelerating against the same hour last week
	httpkit.Get(r, "/velocity", h.velocity)

	// fit a model on the training lookback
	httpkit.PostJSON[domain.TrainRequest](r, "/train", h.train)

	// terms the cached model expects to trend next
	httpkit.Get(r, "/predictions", h.predictions)

	// debug surface for the keyword extractor
	httpkit.PostJSON[domain.ExtractRequest](r, "/extract", h.extract)
}

type handlers struct{ svc domain.Service }

// @Summary Velocity signals
// @Tags Trends
// @Produce json
// @Param platform query string false "hackernews, news or rss"
// @Param threshold query number false "inclusive minimum velocity from -1 to 1000, default from TRENDS_VELOCITY_THRESHOLD"
// @Param limit query int false "max signals, default 20"
// @Success 200 {object} domain.VelocityReport "ok"
// @Router /trends/velocity [get]
func (h *handlers) velocity(r *stdhttp.Request) (any, error) {
	platform, err := httpkit.QueryString(r, "platform", "", "omitempty,platform")
	if err != nil {
		return nil, err
	}
	threshold, err := httpkit.QueryFloatOpt(r, "threshold", "gte=-1,lte=1000")
	if err != nil {
		return nil, err
	}
	limit, err := httpkit.QueryInt(r, "limit", 0, "gte=0,lte=500")
	if err != nil {
		return nil, err
	}
	return h.svc.Velocity(r.Context(), domain.VelocityQuery{Platform: platform, Threshold: threshold, Limit: limit})
}

// @Summary Train the trend model
// @Tags Trends
// @Accept json
// @Produce json
// @Param payload body domain.TrainRequest true "Scope"
// @Success 200 {object} domain.TrainReport "trained or insufficient data"
// @Router /trends/train [post]
func (h *handlers) train(r *stdhttp.Request, in domain.TrainRequest) (any, error) {
	return h.svc.Train(r.Context(), in)
}

// @Summary Predicted trends
// @Tags Trends
// @Produce json
// @Param platform query string false "hackernews, news or rss"
// @Param limit query int false "max predictions, default 10"
// @Success 200 {object} domain.PredictionReport "ok"
// @Router /trends/predictions [get]
func (h *handlers) predictions(r *stdhttp.Request) (any, error) {
	platform, err := httpkit.QueryString(r, "platform", "", "omitempty,platform")
	if err != nil {
		return nil, err
	}
	limit, err := httpkit.QueryInt(r, "limit", 0, "gte=0,lte=100")
	if err != nil {
		return nil, err
	}
	return h.svc.Predictions(r.Context(), domain.PredictionQuery{Platform: platform, Limit: limit})
}

// @Summary Extract keywords from text
// @Tags Trends
// @Accept json
// @Produce json
// @Param payload body domain.ExtractRequest true "Text"
// @Success 200 {object} domain.ExtractReport "ok"
// @Router /trends/extract [post]
func (h *handlers) extract(r *stdhttp.Request, in domain.ExtractRequest) (any, error) {
	return h.svc.Extract(r.Context(), in)
}
