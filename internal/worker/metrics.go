package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opTrain   = "train"
	opPredict = "predict"

	resultSuccess = "success"
	resultFailure = "failure"
)

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics registers the worker collectors with reg. A nil reg creates
// unregistered collectors, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forest_worker_requests_total",
			Help: "Total worker requests by operation and result",
		}, []string{"op", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forest_worker_request_duration_seconds",
			Help:    "Worker request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"op"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "forest_worker_inflight_requests",
			Help: "Requests currently being processed",
		}),
	}
}

func (m *Metrics) start(op string) func(err error) {
	if m == nil {
		return func(error) {}
	}

	m.inflight.Inc()
	start := time.Now()

	return func(err error) {
		m.inflight.Dec()
		m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		result := resultSuccess
		if err != nil {
			result = resultFailure
		}
		m.requests.WithLabelValues(op, result).Inc()
	}
}
