// Package metrics exposes service counters and histograms in Prometheus
// format. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatqa/internal/domain"
)

const namespace = "chatqa"

// Fetch failure reasons.
const (
	ReasonFetch = "fetch"
	ReasonShape = "shape"
)

type Metrics struct {
	registry       *prometheus.Registry
	questions      *prometheus.CounterVec
	latency        prometheus.Histogram
	fetchFailures  *prometheus.CounterVec
	recordsFetched prometheus.Gauge
	requests       *prometheus.CounterVec
}

// New creates a collector set on its own registry, including the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered, by detected intent.",
		}, []string{"intent"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_duration_seconds",
			Help:      "Time spent answering a question, excluding the fetch.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed message fetches, by reason.",
		}, []string{"reason"}),
		recordsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_fetched",
			Help:      "Number of records returned by the most recent fetch.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.questions,
		m.latency,
		m.fetchFailures,
		m.recordsFetched,
		m.requests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAnswer(intent domain.Intent, d time.Duration) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(string(intent)).Inc()
	m.latency.Observe(d.Seconds())
}

func (m *Metrics) FetchFailed(reason string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Fetched(n int) {
	if m == nil {
		return
	}
	m.recordsFetched.Set(float64(n))
}

func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
