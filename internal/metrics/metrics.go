package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "jellyfin_mqtt"

// Reconcile and command outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics contains the bridge's collectors.
type Metrics struct {
	ReconcileTotal   *prometheus.CounterVec
	EntityEvents     *prometheus.CounterVec
	RegisteredItems  *prometheus.GaugeVec
	CommandsTotal    *prometheus.CounterVec
	CommandsDropped  prometheus.Counter
	CategoryFailures *prometheus.CounterVec
	TickDuration     prometheus.Histogram
	LastTick         prometheus.Gauge
	PublishFailures  prometheus.Gauge
	BusConnected     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ReconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "reconcile",
				Name:      "total",
				Help:      "Reconciliation passes by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		EntityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "reconcile",
				Name:      "events_total",
				Help:      "Lifecycle events emitted by kind and event (register, update, unregister)",
			},
			[]string{"kind", "event"},
		),

		RegisteredItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "registry",
				Name:      "entities",
				Help:      "Registered entities by kind",
			},
			[]string{"kind"},
		),

		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "commands",
				Name:      "total",
				Help:      "Inbound commands by category and outcome",
			},
			[]string{"category", "outcome"},
		),

		CommandsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "commands",
				Name:      "dropped_total",
				Help:      "Inbound messages dropped because the queue was full",
			},
		),

		CategoryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "tick",
				Name:      "category_failures_total",
				Help:      "Poll steps that failed or panicked, by category",
			},
			[]string{"category"},
		),

		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "tick",
				Name:      "duration_seconds",
				Help:      "Duration of one full poll tick",
				Buckets:   prometheus.DefBuckets,
			},
		),

		LastTick: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "tick",
				Name:      "last_timestamp_seconds",
				Help:      "Unix time the last poll tick finished",
			},
		),

		PublishFailures: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "bus",
				Name:      "publish_failures",
				Help:      "Publishes that failed since start",
			},
		),

		BusConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "bus",
				Name:      "connected",
				Help:      "Broker connection status (0=disconnected, 1=connected)",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.ReconcileTotal, m.EntityEvents, m.RegisteredItems,
		m.CommandsTotal, m.CommandsDropped, m.CategoryFailures,
		m.TickDuration, m.LastTick, m.PublishFailures, m.BusConnected,
	}
	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	return m, nil
}

// ObserveReconcile records one reconciliation pass.
func (m *Metrics) ObserveReconcile(kind string, registered, updated, unregistered int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ReconcileTotal.WithLabelValues(kind, OutcomeFailed).Inc()
		return
	}
	m.ReconcileTotal.WithLabelValues(kind, OutcomeOK).Inc()
	m.EntityEvents.WithLabelValues(kind, "register").Add(float64(registered))
	m.EntityEvents.WithLabelValues(kind, "update").Add(float64(updated))
	m.EntityEvents.WithLabelValues(kind, "unregister").Add(float64(unregistered))
}

// SetRegistered sets the registry size of kind.
func (m *Metrics) SetRegistered(kind string, n int) {
	if m == nil {
		return
	}
	m.RegisteredItems.WithLabelValues(kind).Set(float64(n))
}

// ObserveCommand counts an inbound command.
func (m *Metrics) ObserveCommand(category, outcome string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.CommandsTotal.WithLabelValues(category, outcome).Inc()
}

// CommandDropped counts a message dropped at the queue.
func (m *Metrics) CommandDropped() {
	if m == nil {
		return
	}
	m.CommandsDropped.Inc()
}

// CategoryFailed counts a failed poll step.
func (m *Metrics) CategoryFailed(category string) {
	if m == nil {
		return
	}
	m.CategoryFailures.WithLabelValues(category).Inc()
}

// ObserveTick records a finished tick.
func (m *Metrics) ObserveTick(d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
	m.LastTick.Set(float64(at.Unix()))
}

// SetPublishFailures mirrors the publisher's failure count.
func (m *Metrics) SetPublishFailures(n uint64) {
	if m == nil {
		return
	}
	m.PublishFailures.Set(float64(n))
}

// SetConnected records the broker connection state.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.BusConnected.Set(1)
		return
	}
	m.BusConnected.Set(0)
}
