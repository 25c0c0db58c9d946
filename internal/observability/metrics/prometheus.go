package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMatchMetrics implements MatchMetrics on a prometheus registry.
type PrometheusMatchMetrics struct {
	pollAttempts      *prometheus.CounterVec
	pollCooldownHits  *prometheus.CounterVec
	solvesRecorded    *prometheus.CounterVec
	solvesCorrected   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationFailures *prometheus.CounterVec
}

func NewPrometheusMatchMetrics(reg prometheus.Registerer) *PrometheusMatchMetrics {
	m := &PrometheusMatchMetrics{
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_poll_attempts_total",
			Help: "Poll calls that passed the precondition checks.",
		}, []string{"mode"}),
		pollCooldownHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_poll_cooldown_hits_total",
			Help: "Poll calls short-circuited by the cooldown gate.",
		}, []string{"mode"}),
		solvesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_solves_recorded_total",
			Help: "New solve-log entries committed.",
		}, []string{"mode"}),
		solvesCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_solves_corrected_total",
			Help: "Solve-log entries re-attributed on earlier evidence.",
		}, []string{"mode"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arena_operation_duration_seconds",
			Help:    "Duration of match-engine operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_operation_failures_total",
			Help: "Match-engine operations that returned an error.",
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.pollAttempts,
		m.pollCooldownHits,
		m.solvesRecorded,
		m.solvesCorrected,
		m.operationDuration,
		m.operationFailures,
	)
	return m
}

func (m *PrometheusMatchMetrics) RecordPollAttempt(_ context.Context, mode string) {
	m.pollAttempts.WithLabelValues(mode).Inc()
}

func (m *PrometheusMatchMetrics) RecordPollCooldownHit(_ context.Context, mode string) {
	m.pollCooldownHits.WithLabelValues(mode).Inc()
}

func (m *PrometheusMatchMetrics) RecordSolveRecorded(_ context.Context, mode string) {
	m.solvesRecorded.WithLabelValues(mode).Inc()
}

func (m *PrometheusMatchMetrics) RecordSolveCorrected(_ context.Context, mode string) {
	m.solvesCorrected.WithLabelValues(mode).Inc()
}

func (m *PrometheusMatchMetrics) RecordOperationDuration(_ context.Context, operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *PrometheusMatchMetrics) RecordOperationFailure(_ context.Context, operation string) {
	m.operationFailures.WithLabelValues(operation).Inc()
}

// PrometheusFeedMetrics implements FeedMetrics on a prometheus registry.
type PrometheusFeedMetrics struct {
	feedRequests     prometheus.Counter
	feedCacheHits    prometheus.Counter
	feedCoalesced    prometheus.Counter
	upstreamErrors   *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

func NewPrometheusFeedMetrics(reg prometheus.Registerer) *PrometheusFeedMetrics {
	m := &PrometheusFeedMetrics{
		feedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_feed_requests_total",
			Help: "Submission feed lookups, including cache hits.",
		}),
		feedCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_feed_cache_hits_total",
			Help: "Submission feed lookups served from the TTL cache.",
		}),
		feedCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_feed_coalesced_total",
			Help: "Submission feed lookups joined to an in-flight upstream call.",
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_upstream_errors_total",
			Help: "Upstream judge API failures, by endpoint.",
		}, []string{"endpoint"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arena_upstream_duration_seconds",
			Help:    "Upstream judge API call durations, by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(
		m.feedRequests,
		m.feedCacheHits,
		m.feedCoalesced,
		m.upstreamErrors,
		m.upstreamDuration,
	)
	return m
}

func (m *PrometheusFeedMetrics) RecordFeedRequest(context.Context)  { m.feedRequests.Inc() }
func (m *PrometheusFeedMetrics) RecordFeedCacheHit(context.Context) { m.feedCacheHits.Inc() }
func (m *PrometheusFeedMetrics) RecordFeedCoalesced(context.Context) {
	m.feedCoalesced.Inc()
}

func (m *PrometheusFeedMetrics) RecordUpstreamError(_ context.Context, endpoint string) {
	m.upstreamErrors.WithLabelValues(endpoint).Inc()
}

func (m *PrometheusFeedMetrics) RecordUpstreamDuration(_ context.Context, endpoint string, d time.Duration) {
	m.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
