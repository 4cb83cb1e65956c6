package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics exposes counters/histograms for the reminder sweep.
type ReminderMetrics struct {
	dispatchedTotal *prometheus.CounterVec
	failedTotal     *prometheus.CounterVec
	skippedTotal    *prometheus.CounterVec
	sweepSeconds    prometheus.Histogram
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwell",
			Subsystem: "reminder",
			Name:      "dispatched_total",
			Help:      "Total reminders dispatched, by offset",
		}, []string{"offset"}),
		failedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwell",
			Subsystem: "reminder",
			Name:      "failed_total",
			Help:      "Total reminder dispatch failures, by offset",
		}, []string{"offset"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwell",
			Subsystem: "reminder",
			Name:      "skipped_total",
			Help:      "Reminders skipped during sweeps, by reason",
		}, []string{"reason"}),
		sweepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bookwell",
			Subsystem: "reminder",
			Name:      "sweep_seconds",
			Help:      "Duration of reminder sweeps",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dispatchedTotal, m.failedTotal, m.skippedTotal, m.sweepSeconds)
	return m
}

func (m *ReminderMetrics) ObserveDispatched(offset string) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(offset).Inc()
}

func (m *ReminderMetrics) ObserveFailed(offset string) {
	if m == nil {
		return
	}
	m.failedTotal.WithLabelValues(offset).Inc()
}

func (m *ReminderMetrics) ObserveSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTotal.WithLabelValues(reason).Inc()
}

func (m *ReminderMetrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.sweepSeconds.Observe(seconds)
}
