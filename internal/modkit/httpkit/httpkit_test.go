package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trendflow/internal/platform/config"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

type echoIn struct {
	Text string `json:"text" validate:"required,min=2"`
}

func newAPI(t *testing.T, cfg config.Conf) http.Handler {
	t.Helper()
	mux := chi.NewRouter()
	MountAPIV1(phttp.AdaptChi(mux), CommonStack(cfg), func(api Router) {
		Get(api, "/ping", func(*http.Request) (any, error) { return "pong", nil })
		Post(api, "/queue", func(*http.Request) (any, error) { return Accepted(map[string]bool{"queued": true}), nil })
		PostJSON(api, "/echo", func(_ *http.Request, in echoIn) (any, error) { return in.Text, nil })
	})
	return mux
}

func TestMountAPIV1_RoutesUnderPrefix(t *testing.T) {
	h := newAPI(t, config.New().Prefix("HK_A_"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	env := testkit.DecodeEnvelope[string](t, rr.Body)
	if env.Data != "pong" {
		t.Fatalf("data = %q", env.Data)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unprefixed status = %d", rr.Code)
	}
}

func TestCall_ResponsePicksStatus(t *testing.T) {
	h := newAPI(t, config.New().Prefix("HK_B_"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/queue", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	env := testkit.DecodeEnvelope[map[string]bool](t, rr.Body)
	if !env.Data["queued"] {
		t.Fatalf("data = %#v", env.Data)
	}
}

func TestPostJSON_Validates(t *testing.T) {
	h := newAPI(t, config.New().Prefix("HK_C_"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{"text":"x"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("short text status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{"text":"rust"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if env := testkit.DecodeEnvelope[string](t, rr.Body); env.Data != "rust" {
		t.Fatalf("data = %q", env.Data)
	}
}

func TestCommonStack_RateLimitAndCORS(t *testing.T) {
	t.Setenv("HK_D_RATE_LIMIT", "1")
	t.Setenv("HK_D_CORS_ORIGINS", "https://dash.example")
	h := newAPI(t, config.New().Prefix("HK_D_"))

	req := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		r.Header.Set("Origin", "https://dash.example")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr
	}

	first := req()
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	if got := first.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("allow origin = %q", got)
	}
	if second := req(); second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
}
