// Package metrics holds the Prometheus collectors for stock and order activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the collectors. Use New with a registry; tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
type Recorder struct {
	Adjustments     *prometheus.CounterVec
	Orders          *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retail_ops",
			Name:      "stock_adjustments_total",
			Help:      "Stock adjustments by outcome and direction.",
		}, []string{"outcome", "direction"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retail_ops",
			Name:      "orders_validated_total",
			Help:      "Order placements by outcome.",
		}, []string{"outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retail_ops",
			Name:      "order_transitions_total",
			Help:      "Order status changes by target status and outcome.",
		}, []string{"status", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "retail_ops",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(r.Adjustments, r.Orders, r.Transitions, r.RequestDuration)
	return r
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveAdjustment counts one adjustment attempt. Nil receivers are no-ops.
func (r *Recorder) ObserveAdjustment(delta int64, err error) {
	if r == nil {
		return
	}
	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	r.Adjustments.WithLabelValues(outcome(err), direction).Inc()
}

// ObserveOrder counts one order placement attempt.
func (r *Recorder) ObserveOrder(err error) {
	if r == nil {
		return
	}
	r.Orders.WithLabelValues(outcome(err)).Inc()
}

// ObserveTransition counts one status change attempt.
func (r *Recorder) ObserveTransition(status string, err error) {
	if r == nil {
		return
	}
	r.Transitions.WithLabelValues(status, outcome(err)).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
