package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request and service activity
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	invocations *prometheus.CounterVec
}

// NewMetrics creates metrics registered with registerer. A nil registerer
// leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "greeter_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "greeter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "greeter_service_invocations_total",
			Help: "Total service invocations by service path",
		}, []string{"service"}),
	}

	if registerer != nil {
		registerer.MustRegister(m.requests)
		registerer.MustRegister(m.duration)
		registerer.MustRegister(m.invocations)
	}

	return m
}

// ObserveRequest records a finished request
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveInvocation records a service call
func (m *Metrics) ObserveInvocation(service string) {
	m.invocations.WithLabelValues(service).Inc()
}
