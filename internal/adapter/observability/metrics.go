package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	AIAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_attempts_total",
			Help: "Provider attempts by provider, model and outcome",
		},
		[]string{"provider", "model", "outcome"},
	)
	AIAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_attempt_duration_seconds",
			Help:    "Provider attempt latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"provider", "outcome"},
	)
	AIInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_invocations_total",
			Help: "Logical chain invocations by operation and result",
		},
		[]string{"operation", "result"},
	)
	AIPromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens",
			Help:    "Estimated prompt tokens per invocation",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000},
		},
		[]string{"operation"},
	)

	InterviewTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_turns_total",
			Help: "Submitted interview turns by round",
		},
		[]string{"round"},
	)
	AnswerScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_answer_score",
			Help:    "Distribution of per-answer scores ([0,100])",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_reports_total",
			Help: "Compiled final reports by recommendation",
		},
		[]string{"recommendation"},
	)
)

var registerOnce sync.Once

// InitMetrics registers every collector with the default registry. Repeated
// calls are no-ops.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIAttemptsTotal,
			AIAttemptDuration,
			AIInvocationsTotal,
			AIPromptTokens,
			InterviewTurnsTotal,
			AnswerScoreHistogram,
			ReportsTotal,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAttempt records one provider attempt.
func ObserveAttempt(provider, model, outcome string, latency time.Duration) {
	AIAttemptsTotal.WithLabelValues(provider, model, outcome).Inc()
	AIAttemptDuration.WithLabelValues(provider, outcome).Observe(latency.Seconds())
}

// ObserveInvocation records the final result of a chain invocation.
func ObserveInvocation(operation, result string, promptTokens int) {
	if operation == "" {
		operation = "unknown"
	}
	AIInvocationsTotal.WithLabelValues(operation, result).Inc()
	if promptTokens > 0 {
		AIPromptTokens.WithLabelValues(operation).Observe(float64(promptTokens))
	}
}

// ObserveTurn records a scored interview turn.
func ObserveTurn(round, score int) {
	InterviewTurnsTotal.WithLabelValues(strconv.Itoa(round)).Inc()
	if score >= 0 && score <= 100 {
		AnswerScoreHistogram.Observe(float64(score))
	}
}

// ObserveReport records a compiled report.
func ObserveReport(recommendation string) {
	ReportsTotal.WithLabelValues(recommendation).Inc()
}
