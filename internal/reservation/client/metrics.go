package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomes usados no label "outcome"
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeInvalid        = "invalid"
)

// Metrics agrupa os coletores Prometheus do cliente
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics cria e registra os coletores no registerer informado
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gpu_api_requests_total",
			Help: "Chamadas à API de reservas de GPU por action e resultado",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gpu_api_request_duration_seconds",
			Help:    "Tempo de ida e volta medido no cliente",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(action, outcome).Inc()
	if outcome != OutcomeInvalid {
		m.duration.WithLabelValues(action).Observe(d.Seconds())
	}
}
