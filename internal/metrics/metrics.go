// Package metrics implements the prometheus registry: the concrete
// backing for session.Metrics, exposed over the loopback /metrics
// listener. A GoCollector plus the three debug-control gauges/counters
// (stop events, pending breakpoints, dropped captured events).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dev-console/debugctl/internal/stopreason"
)

// Registry is the metrics sink, implementing session.Metrics.
type Registry struct {
	reg *prometheus.Registry

	stopEvents            *prometheus.CounterVec
	pendingBreakpoints    *prometheus.GaugeVec
	capturedEventsDropped prometheus.Counter
}

// New builds a fresh registry with the Go runtime collector plus the three
// debug-control metrics.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	r := &Registry{
		reg: reg,
		stopEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debugctl_stop_events_total",
			Help: "Count of debuggee stop events, by stop-reason kind.",
		}, []string{"kind"}),
		pendingBreakpoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "debugctl_pending_breakpoints",
			Help: "Count of breakpoint/watchpoint/method-break records still pending class load, by registry kind.",
		}, []string{"kind"}),
		capturedEventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debugctl_captured_events_dropped_total",
			Help: "Count of event-monitor captures dropped because the FIFO was at capacity.",
		}),
	}
	reg.MustRegister(r.stopEvents, r.pendingBreakpoints, r.capturedEventsDropped)
	return r
}

// Gatherer exposes the underlying registry for the /metrics HTTP handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveStopEvent implements session.Metrics.
func (r *Registry) ObserveStopEvent(kind stopreason.Kind) {
	r.stopEvents.WithLabelValues(string(kind)).Inc()
}

// SetPendingBreakpoints implements session.Metrics.
func (r *Registry) SetPendingBreakpoints(kind string, n int) {
	r.pendingBreakpoints.WithLabelValues(kind).Set(float64(n))
}

// IncCapturedEventsDropped implements session.Metrics.
func (r *Registry) IncCapturedEventsDropped() {
	r.capturedEventsDropped.Inc()
}
