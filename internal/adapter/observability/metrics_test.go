package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) }))
	mw.ServeHTTP(rec, r)
	assert.Equal(t, 204, rec.Result().StatusCode)
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/x", "GET", "No Content")), 1.0)
}

func TestInitMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})
}

func TestObserveHelpers(t *testing.T) {
	before := testutil.ToFloat64(AIAttemptsTotal.WithLabelValues("p", "m", "rateLimited"))
	ObserveAttempt("p", "m", "rateLimited", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(AIAttemptsTotal.WithLabelValues("p", "m", "rateLimited")))

	ObserveInvocation("", "success", 120)
	assert.GreaterOrEqual(t, testutil.ToFloat64(AIInvocationsTotal.WithLabelValues("unknown", "success")), 1.0)

	ObserveTurn(2, 75)
	ObserveTurn(2, 150)
	assert.GreaterOrEqual(t, testutil.ToFloat64(InterviewTurnsTotal.WithLabelValues("2")), 2.0)

	ObserveReport("hire")
	assert.GreaterOrEqual(t, testutil.ToFloat64(ReportsTotal.WithLabelValues("hire")), 1.0)
}
