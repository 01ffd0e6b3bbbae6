package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry holds the service's metrics on a private registry. A nil
// *Telemetry is valid and records nothing, so the solver and resolvers
// work unchanged in tests.
type Telemetry struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	rounds      prometheus.Counter
	submissions *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
}

// New creates a telemetry instance with all collectors registered.
func New() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizagent_runs_total",
			Help: "Quiz runs by terminal outcome.",
		}, []string{"outcome"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizagent_rounds_total",
			Help: "Quiz rounds started.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizagent_submissions_total",
			Help: "Answer submissions by grader verdict.",
		}, []string{"correct"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizagent_llm_request_seconds",
			Help:    "Completion call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	t.registry.MustRegister(t.runs, t.rounds, t.submissions, t.llmLatency)
	return t
}

// Handler serves the registry for the /metrics route.
func (t *Telemetry) Handler() http.Handler {
	if t == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// RunFinished records a run's terminal outcome.
func (t *Telemetry) RunFinished(outcome string) {
	if t == nil {
		return
	}
	t.runs.WithLabelValues(outcome).Inc()
}

// RoundStarted counts one round.
func (t *Telemetry) RoundStarted() {
	if t == nil {
		return
	}
	t.rounds.Inc()
}

// SubmissionRecorded counts one graded submission.
func (t *Telemetry) SubmissionRecorded(correct bool) {
	if t == nil {
		return
	}
	t.submissions.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// ObserveLLM records one completion call's duration under op.
func (t *Telemetry) ObserveLLM(op string, d time.Duration) {
	if t == nil {
		return
	}
	t.llmLatency.WithLabelValues(op).Observe(d.Seconds())
}
