package sideload

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline outcomes
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    prometheus.Counter
}

// NewMetrics creates and registers the pipeline collectors on reg. A nil
// registerer creates unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sideload",
			Name:      "requests_total",
			Help:      "Sideload pipeline runs by outcome code.",
		}, []string{"code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sideload",
			Name:      "duration_seconds",
			Help:      "Sideload pipeline duration by outcome code.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"code"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sideload",
			Name:      "ingested_bytes_total",
			Help:      "Bytes copied into the media store.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.duration, m.bytes)
	}
	return m
}

func (m *Metrics) observe(code string, elapsed time.Duration, size int64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(code).Inc()
	m.duration.WithLabelValues(code).Observe(elapsed.Seconds())
	if size > 0 {
		m.bytes.Add(float64(size))
	}
}
