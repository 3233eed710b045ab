package worker

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) Requests(op, result string) prometheus.Counter {
	return m.requests.WithLabelValues(op, result)
}
