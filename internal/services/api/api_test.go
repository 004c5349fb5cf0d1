package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trendflow/internal/core/keywords"
	"trendflow/internal/platform/config"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/platform/store"
	"trendflow/internal/platform/testkit"
	trendsdom "trendflow/internal/services/trends/domain"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMount_WiresModules(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mux := chi.NewRouter()
	mods, err := Mount(phttp.AdaptChi(mux), Options{
		Config:        config.New().Prefix("API_TEST_A_"),
		Store:         store.FromPool(mock),
		EnableSwagger: true,
	})
	require.NoError(t, err)

	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"meta", "keywords", "trends", "stats"}, names)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/meta/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/trends/extract", strings.NewReader(`{"text":"golang generics golang","top_n":1}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	env := testkit.DecodeEnvelope[trendsdom.ExtractReport](t, rr.Body)
	assert.Equal(t, []keywords.TermCount{{Term: "golang", Count: 2}}, env.Data.Keywords)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMount_NoPostgres(t *testing.T) {
	_, err := Mount(phttp.AdaptChi(chi.NewRouter()), Options{
		Config: config.New().Prefix("API_TEST_B_"),
		Store:  &store.Store{},
	})
	require.Error(t, err, "the default keywords backend needs postgres")
}
