package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the Bridge
// =============================================================================

// Metrics holds the counters a bridge updates. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// patchesApplied counts applied patches.
	// Labels: type (update, subview, remove)
	patchesApplied *prometheus.CounterVec

	// patchFailures counts patches that failed.
	// Labels: type, code (UNKNOWN_VIEW, KIND_MISMATCH, ...)
	patchFailures *prometheus.CounterVec

	// eventsDelivered counts events handed to a receiver.
	// Labels: category
	eventsDelivered *prometheus.CounterVec

	// eventsDropped counts events that reached no receiver.
	// Labels: category, reason (handler_absent, out_of_order_phase, ...)
	eventsDropped *prometheus.CounterVec

	// phaseViolations counts out-of-order phases, delivered or not.
	// Labels: category
	phaseViolations *prometheus.CounterVec

	receiverPanics prometheus.Counter
	journalErrors  prometheus.Counter
	deferredDrops  prometheus.Counter

	// views tracks the number of live views.
	views prometheus.Gauge
}

// NewMetrics creates the bridge counters and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler,
// or a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		patchesApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "patches",
			Name:      "applied_total",
			Help:      "Patches applied to the view tree",
		}, []string{"type"}),
		patchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "patches",
			Name:      "failed_total",
			Help:      "Patches rejected, by error code",
		}, []string{"type", "code"}),
		eventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "events",
			Name:      "delivered_total",
			Help:      "Events delivered to a receiver",
		}, []string{"category"}),
		eventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Events not delivered, by reason",
		}, []string{"category", "reason"}),
		phaseViolations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "events",
			Name:      "phase_violations_total",
			Help:      "Events whose phase broke the device's phase order",
		}, []string{"category"}),
		receiverPanics: f.NewCounter(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "events",
			Name:      "receiver_panics_total",
			Help:      "Receivers that panicked and were recovered",
		}),
		journalErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "journal",
			Name:      "errors_total",
			Help:      "Journal writes that failed",
		}),
		deferredDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: "viewbridge",
			Subsystem: "dispatch",
			Name:      "deferred_discarded_total",
			Help:      "Deferred receiver work discarded by the deferral quota",
		}),
		views: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "viewbridge",
			Subsystem: "tree",
			Name:      "views",
			Help:      "Live views in the tree",
		}),
	}
}

func (m *Metrics) patchApplied(typ string) {
	if m == nil {
		return
	}
	m.patchesApplied.WithLabelValues(typ).Inc()
}

func (m *Metrics) patchFailed(typ, code string) {
	if m == nil {
		return
	}
	m.patchFailures.WithLabelValues(typ, code).Inc()
}

func (m *Metrics) eventDelivered(category string) {
	if m == nil {
		return
	}
	m.eventsDelivered.WithLabelValues(category).Inc()
}

func (m *Metrics) eventDropped(category string, reason DropReason) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(category, string(reason)).Inc()
}

func (m *Metrics) phaseViolation(category string) {
	if m == nil {
		return
	}
	m.phaseViolations.WithLabelValues(category).Inc()
}

func (m *Metrics) receiverPanic() {
	if m == nil {
		return
	}
	m.receiverPanics.Inc()
}

func (m *Metrics) journalError() {
	if m == nil {
		return
	}
	m.journalErrors.Inc()
}

func (m *Metrics) deferredDiscarded(n int) {
	if m == nil {
		return
	}
	m.deferredDrops.Add(float64(n))
}

func (m *Metrics) setViews(n int) {
	if m == nil {
		return
	}
	m.views.Set(float64(n))
}
