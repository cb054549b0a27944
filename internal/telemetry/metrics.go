package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "techbridge"

var (
	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	llmRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Duration of LLM provider calls by purpose, model and outcome.",
		Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16},
	}, []string{"purpose", "model", "success"})

	gradedAssessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessments_graded_total",
		Help:      "Graded assessment sessions by level and result.",
	}, []string{"level", "passed"})

	usersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Users created by identity sync.",
	})
)

func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func ObserveLLMRequest(purpose, model string, success bool, d time.Duration) {
	llmRequests.WithLabelValues(purpose, model, strconv.FormatBool(success)).Observe(d.Seconds())
}

func CountGradedAssessment(level string, passed bool) {
	gradedAssessments.WithLabelValues(level, strconv.FormatBool(passed)).Inc()
}

func CountUserCreated() {
	usersCreated.Inc()
}
