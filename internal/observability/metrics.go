package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	scoredAnswersTotal   *prometheus.CounterVec
	judgeFallbacksTotal  *prometheus.CounterVec
	scorePersistFailures *prometheus.CounterVec
	quizPlansTotal       *prometheus.CounterVec
	scoreEventsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		scoredAnswersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_answers_total",
			Help: "Answers scored, by evaluator kind and outcome.",
		}, []string{"kind", "outcome"})

		judgeFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_judge_fallbacks_total",
			Help: "Subjective answers graded by the deterministic fallback instead of the AI judge.",
		}, []string{"kind", "reason"})

		scorePersistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_persist_failures_total",
			Help: "Score results that could not be stored.",
		}, []string{"path"})

		quizPlansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_plans_total",
			Help: "Quiz plans requested, by level and result.",
		}, []string{"level", "result"})

		scoreEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_events_published_total",
			Help: "Score events published, by transport and status.",
		}, []string{"transport", "status"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			scoredAnswersTotal,
			judgeFallbacksTotal,
			scorePersistFailures,
			quizPlansTotal,
			scoreEventsPublished,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ScoredAnswers exposes the scored answers counter.
func ScoredAnswers() *prometheus.CounterVec {
	RegisterMetrics()
	return scoredAnswersTotal
}

// JudgeFallbacks exposes the judge fallback counter.
func JudgeFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return judgeFallbacksTotal
}

// ScorePersistFailures exposes the persistence failure counter.
func ScorePersistFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return scorePersistFailures
}

// QuizPlans exposes the quiz plan counter.
func QuizPlans() *prometheus.CounterVec {
	RegisterMetrics()
	return quizPlansTotal
}

// ScoreEventsPublished exposes the score event counter.
func ScoreEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreEventsPublished
}
