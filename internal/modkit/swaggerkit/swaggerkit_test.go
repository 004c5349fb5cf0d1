package swaggerkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"trendflow/internal/core/version"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mounted(enabled bool) http.Handler {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), enabled)
	return mux
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestDocJSON_CoversEveryModule(t *testing.T) {
	rr := get(mounted(true), "/api/docs/doc.json")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var spec struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]map[string]struct {
			Responses map[string]any `json:"responses"`
		} `json:"paths"`
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Equal(t, version.Info().Version, spec.Info.Version)
	assert.Contains(t, spec.Components.Schemas, "ErrorResponse")

	for _, p := range []string{
		"/meta/health", "/meta/ready", "/meta/version",
		"/trends/velocity", "/trends/train", "/trends/predictions", "/trends/extract",
		"/stats/overview", "/stats/keywords", "/stats/timeline", "/stats/platforms", "/stats/stories",
	} {
		ops, ok := spec.Paths[p]
		if !assert.True(t, ok, p) {
			continue
		}
		for method, op := range ops {
			assert.Contains(t, op.Responses, "500", "%s %s", method, p)
		}
	}
}

func TestDocJSON_BrokenDocument(t *testing.T) {
	testkit.Swap(t, &docReader, func() []byte { return []byte("{") })
	rr := get(mounted(true), "/api/docs/doc.json")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestMount_Disabled(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(mounted(false), "/api/docs/doc.json").Code)
}

func TestMount_Redirect(t *testing.T) {
	rr := get(mounted(true), "/api/docs")
	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "/api/docs/", rr.Header().Get("Location"))
}
