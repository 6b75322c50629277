// Package metrics exposes Prometheus counters for the realtime pipeline and
// for optimistic mutations. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters the SDK maintains.
type Metrics struct {
	eventsApplied   *prometheus.CounterVec
	eventsIgnored   *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	rollbacks       *prometheus.CounterVec
}

// New creates the counters and registers them on reg. A nil reg skips
// registration, which is what tests use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feeds",
			Name:      "events_applied_total",
			Help:      "Realtime events that changed controller state.",
		}, []string{"type"}),
		eventsIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feeds",
			Name:      "events_ignored_total",
			Help:      "Realtime events that produced no state change.",
		}, []string{"type"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feeds",
			Name:      "events_dropped_total",
			Help:      "Realtime frames dropped before dispatch.",
		}, []string{"reason"}),
		eventsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "feeds",
			Name:      "events_duplicate_total",
			Help:      "Realtime events skipped because their id was already seen.",
		}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feeds",
			Name:      "optimistic_rollbacks_total",
			Help:      "Optimistic patches reverted after the server rejected the mutation.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.eventsApplied, m.eventsIgnored, m.eventsDropped, m.eventsDuplicate, m.rollbacks)
	}
	return m
}

// EventHandled records whether an event changed state.
func (m *Metrics) EventHandled(eventType string, changed bool) {
	if m == nil {
		return
	}
	if changed {
		m.eventsApplied.WithLabelValues(eventType).Inc()
		return
	}
	m.eventsIgnored.WithLabelValues(eventType).Inc()
}

// EventDropped records a frame that never reached a controller.
func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(reason).Inc()
}

// EventDuplicate records a de-duplicated event.
func (m *Metrics) EventDuplicate() {
	if m == nil {
		return
	}
	m.eventsDuplicate.Inc()
}

// Rollback records a reverted optimistic patch.
func (m *Metrics) Rollback(kind string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(kind).Inc()
}
