// Package metrics exposes the Prometheus collectors of the storefront API.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stock adjustment outcomes.
const (
	OutcomeApplied      = "applied"
	OutcomeInsufficient = "insufficient"
	OutcomeNotFound     = "not_found"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// Recorder receives business events from the service layer.
type Recorder interface {
	// RecordStockAdjustment counts one stock engine call.
	RecordStockAdjustment(direction, outcome string)
	// RecordOrderEvent counts one order lifecycle event such as "created" or
	// "deleted".
	RecordOrderEvent(event string)
}

// Metrics holds every collector of the service.
type Metrics struct {
	stockAdjustments *prometheus.CounterVec
	orderEvents      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInFlight     prometheus.Gauge
}

// New registers the collectors with registerer. A nil registerer uses the
// default Prometheus registry. Registering twice against the same registry
// reuses the existing collectors.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		stockAdjustments: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_adjustments_total",
			Help: "Total number of stock adjustments by direction and outcome",
		}, []string{"direction", "outcome"}),
		orderEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_events_total",
			Help: "Total number of order lifecycle events",
		}, []string{"event"}),
		httpRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"route", "method"}),
		httpInFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

// RecordStockAdjustment counts one stock engine call.
func (m *Metrics) RecordStockAdjustment(direction, outcome string) {
	m.stockAdjustments.WithLabelValues(direction, outcome).Inc()
}

// RecordOrderEvent counts one order lifecycle event.
func (m *Metrics) RecordOrderEvent(event string) {
	m.orderEvents.WithLabelValues(event).Inc()
}

// RecordHTTPRequest records a finished HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, fmt.Sprintf("%d", status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RequestStarted increments the in-flight gauge.
func (m *Metrics) RequestStarted() {
	m.httpInFlight.Inc()
}

// RequestFinished decrements the in-flight gauge.
func (m *Metrics) RequestFinished() {
	m.httpInFlight.Dec()
}

type nopRecorder struct{}

func (nopRecorder) RecordStockAdjustment(string, string) {}
func (nopRecorder) RecordOrderEvent(string)              {}

// Nop returns a Recorder that discards every event.
func Nop() Recorder {
	return nopRecorder{}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
