package webservice

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments registered endpoints by operation id.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cactus_endpoint_requests_total",
			Help: "Requests served per endpoint operation and status code.",
		}, []string{"operation_id", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cactus_endpoint_request_duration_seconds",
			Help:    "Time spent serving endpoint operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation_id"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) instrument(operationID string, next http.Handler) http.Handler {
	l := prometheus.Labels{"operation_id": operationID}
	return promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(l),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(l), next))
}
