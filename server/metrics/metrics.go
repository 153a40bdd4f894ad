package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vigilglc/sortid/server/idgen"
)

const namespace = "sortid"

// Metrics holds the collectors of one server, each server gets its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	BatchSize       prometheus.Histogram
}

// New registers request collectors and counters mirroring the generator's stats.
func New(stats func() idgen.Stats) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests by method and status",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of ids requested per call",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.BatchSize,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ids_issued_total",
			Help:      "Total number of ids issued by the generator",
		}, func() float64 { return float64(stats().Issued) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_exhausted_total",
			Help:      "Times the generator waited for the next tick after exhausting the sequence",
		}, func() float64 { return float64(stats().Exhausted) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_regressions_total",
			Help:      "Times the generator refused to issue an id because the clock moved backwards",
		}, func() float64 { return float64(stats().Regressions) }),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
