package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitechat"

// Page results reported by PageCrawled.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds every sitechat collector.
type Metrics struct {
	registry *prometheus.Registry

	pagesCrawled    *prometheus.CounterVec
	chunksIndexed   prometheus.Counter
	ingestDuration  *prometheus.HistogramVec
	queries         *prometheus.CounterVec
	sources         prometheus.Histogram
	activeSessions  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesCrawled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_crawled_total",
			Help:      "Pages recorded by the crawler, by result.",
		}, []string{"result"}),
		chunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_indexed_total",
			Help:      "Chunks embedded and stored in the index.",
		}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of ingestion runs, by outcome.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"outcome"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Answered questions, by kind (query or chat).",
		}, []string{"kind"}),
		sources: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_sources",
			Help:      "Number of context chunks used per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Chat sessions currently held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests, by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.pagesCrawled,
		m.chunksIndexed,
		m.ingestDuration,
		m.queries,
		m.sources,
		m.activeSessions,
		m.httpRequests,
		m.requestDuration,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PageCrawled counts a page recorded by the crawler.
func (m *Metrics) PageCrawled(_ string, _ int, failed bool) {
	result := ResultOK
	if failed {
		result = ResultFailed
	}
	m.pagesCrawled.WithLabelValues(result).Inc()
}

// ChunksIndexed adds n stored chunks.
func (m *Metrics) ChunksIndexed(n int) {
	m.chunksIndexed.Add(float64(n))
}

// IngestFinished records the duration of an ingestion run.
func (m *Metrics) IngestFinished(d time.Duration, failed bool) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.ingestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Answered counts an answered question.
func (m *Metrics) Answered(kind string, sources int) {
	m.queries.WithLabelValues(kind).Inc()
	m.sources.Observe(float64(sources))
}

// SessionsChanged sets the number of live chat sessions.
func (m *Metrics) SessionsChanged(n int) {
	m.activeSessions.Set(float64(n))
}

// ObserveRequest records one HTTP API request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
