// Package http provides http transport for stats
package http

import (
	stdhttp "net/http"

	"trendflow/internal/modkit/httpkit"
	"trendflow/internal/services/api/stats/domain"
	svc "trendflow/internal/services/api/stats/service"
)

// Register mounts stats endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// headline counts and story growth
	httpkit.PostJSON[domain.OverviewInput](r, "/overview", h.overview)

	// largest keyword rows in window
	httpkit.PostJSON[domain.KeywordsInput](r, "/keywords", h.keywords)

	// per day sums per keyword
	httpkit.PostJSON[domain.TimelineInput](r, "/timeline", h.timeline)

	// hacker news against news outlets
	httpkit.PostJSON[domain.PlatformsInput](r, "/platforms", h.platforms)

	// top stories by score
	httpkit.PostJSON[domain.StoriesInput](r, "/stories", h.stories)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /stats/overview Stats statsOverview
// @Summary Headline counts
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body domain.OverviewInput true "Window"
// @Success 200 {object} domain.Overview "ok"
// @Router /stats/overview [post]
func (h *handlers) overview(r *stdhttp.Request, in domain.OverviewInput) (any, error) {
	return h.svc.Overview(r.Context(), in)
}

// swagger:route POST /stats/keywords Stats statsKeywords
// @Summary Top keyword rows
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body domain.KeywordsInput true "Query"
// @Success 200 {array} domain.KeywordRow "ok"
// @Router /stats/keywords [post]
func (h *handlers) keywords(r *stdhttp.Request, in domain.KeywordsInput) (any, error) {
	return h.svc.Keywords(r.Context(), in)
}

// swagger:route POST /stats/timeline Stats statsTimeline
// @Summary Keyword timeline by day
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body domain.TimelineInput true "Query"
// @Success 200 {object} domain.Timeline "ok"
// @Router /stats/timeline [post]
func (h *handlers) timeline(r *stdhttp.Request, in domain.TimelineInput) (any, error) {
	return h.svc.Timeline(r.Context(), in)
}

// swagger:route POST /stats/platforms Stats statsPlatforms
// @Summary Cross platform keywords
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body domain.PlatformsInput true "Query"
// @Success 200 {object} domain.Platforms "ok"
// @Router /stats/platforms [post]
func (h *handlers) platforms(r *stdhttp.Request, in domain.PlatformsInput) (any, error) {
	return h.svc.Platforms(r.Context(), in)
}

// swagger:route POST /stats/stories Stats statsStories
// @Summary Recent stories by score
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body domain.StoriesInput true "Query"
// @Success 200 {array} domain.StoryRow "ok"
// @Router /stats/stories [post]
func (h *handlers) stories(r *stdhttp.Request, in domain.StoriesInput) (any, error) {
	return h.svc.Stories(r.Context(), in)
}
