package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters_Increment(t *testing.T) {
	before := testutil.ToFloat64(CollectorRuns.WithLabelValues("ok"))
	CollectorRuns.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(CollectorRuns.WithLabelValues("ok")); got != before+1 {
		t.Fatalf("runs = %v, want %v", got, before+1)
	}
}

func TestHandler_ExposesNamespace(t *testing.T) {
	ModelCache.WithLabelValues("memory", "hit").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "trendflow_trends_model_cache_total") {
		t.Fatalf("metrics output missing model cache counter")
	}
}
