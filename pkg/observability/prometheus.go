package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements GraphHooks, CacheHooks and HTTPHooks by
// updating Prometheus collectors.
type PrometheusHooks struct {
	adds         *prometheus.CounterVec
	addDuration  prometheus.Histogram
	nodes        prometheus.Gauge
	backendCalls *prometheus.CounterVec
	backendTime  *prometheus.HistogramVec
	cacheEvents  *prometheus.CounterVec
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		adds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitdag",
			Name:      "adds_total",
			Help:      "Commit insertions by outcome.",
		}, []string{"outcome"}),
		addDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gitdag",
			Name:      "add_duration_seconds",
			Help:      "Time spent in one insertion, merge-base discovery included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gitdag",
			Name:      "nodes",
			Help:      "Commits in the graph.",
		}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitdag",
			Name:      "backend_calls_total",
			Help:      "Uncached repository queries by operation and outcome.",
		}, []string{"op", "outcome"}),
		backendTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gitdag",
			Name:      "backend_call_duration_seconds",
			Help:      "Latency of uncached repository queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitdag",
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"key_type", "event"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitdag",
			Name:      "http_requests_total",
			Help:      "HTTP responses by route and status code.",
		}, []string{"method", "route", "code"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gitdag",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(h.adds, h.addDuration, h.nodes, h.backendCalls, h.backendTime,
		h.cacheEvents, h.requests, h.requestTime)
	return h
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PrometheusHooks) OnAddStart(context.Context, string) {}

func (h *PrometheusHooks) OnAddComplete(_ context.Context, _ string, nodes int, d time.Duration, err error) {
	h.adds.WithLabelValues(outcome(err)).Inc()
	h.addDuration.Observe(d.Seconds())
	h.nodes.Set(float64(nodes))
}

func (h *PrometheusHooks) OnBackendCall(_ context.Context, op string, d time.Duration, err error) {
	h.backendCalls.WithLabelValues(op, outcome(err)).Inc()
	h.backendTime.WithLabelValues(op).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ GraphHooks = (*PrometheusHooks)(nil)
	_ CacheHooks = (*PrometheusHooks)(nil)
	_ HTTPHooks  = (*PrometheusHooks)(nil)
)
