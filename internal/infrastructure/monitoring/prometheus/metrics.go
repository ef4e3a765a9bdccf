// Package prometheus defines the application metrics for PrivLens and the
// HTTP handler that exposes them.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "privlens"

// Metrics holds every application metric.  It satisfies the orchestrator's
// and scheduler's telemetry contracts.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	aiDuration    prometheus.Histogram
	aiTokens      prometheus.Counter
	aiFailures    prometheus.Counter
	fallbackUses  prometheus.Counter
	batchDuration prometheus.Histogram
	batchItems    *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// New builds and registers the full metric set on a fresh registry, along
// with the standard process and Go runtime collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	m := &Metrics{
		registry: registry,
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_hits_total",
			Help:      "Analysis cache hits by content type.",
		}, []string{"content_type"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_misses_total",
			Help:      "Analysis cache misses by content type.",
		}, []string{"content_type"}),
		aiDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "Duration of AI provider calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		aiTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_used_total",
			Help:      "Total tokens consumed by AI provider calls.",
		}),
		aiFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_call_failures_total",
			Help:      "Failed AI provider calls.",
		}),
		fallbackUses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_analyses_total",
			Help:      "Analyses served by the rule-based fallback scorer.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_cycle_duration_seconds",
			Help:      "Duration of batch re-analysis cycles.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Batch items processed by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.cacheHits, m.cacheMisses, m.aiDuration, m.aiTokens, m.aiFailures,
		m.fallbackUses, m.batchDuration, m.batchItems, m.httpDuration,
		m.httpRequests,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheHit implements the orchestrator telemetry contract.
func (m *Metrics) CacheHit(contentType string) {
	m.cacheHits.WithLabelValues(contentType).Inc()
}

// CacheMiss implements the orchestrator telemetry contract.
func (m *Metrics) CacheMiss(contentType string) {
	m.cacheMisses.WithLabelValues(contentType).Inc()
}

// AICall records one provider call.
func (m *Metrics) AICall(duration time.Duration, tokens int, success bool) {
	m.aiDuration.Observe(duration.Seconds())
	if success {
		m.aiTokens.Add(float64(tokens))
	} else {
		m.aiFailures.Inc()
	}
}

// FallbackUsed records one rule-based fallback analysis.
func (m *Metrics) FallbackUsed() {
	m.fallbackUses.Inc()
}

// BatchCycle records one completed batch cycle.
func (m *Metrics) BatchCycle(duration time.Duration, processed, failed int) {
	m.batchDuration.Observe(duration.Seconds())
}

// BatchItem records one batch item outcome.
func (m *Metrics) BatchItem(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.batchItems.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served HTTP request.
func (m *Metrics) HTTPRequest(method, route, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
