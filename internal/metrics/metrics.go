// Package metrics exposes prometheus instrumentation for the delivery
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PrometheusMetrics struct {
	registry      prometheus.Registerer
	dueCollected  prometheus.Counter
	deliveries    *prometheus.CounterVec
	tasksDue      prometheus.Gauge
	pollDuration  prometheus.Histogram
	remindersDrop prometheus.Counter
}

func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		registry: reg,
		dueCollected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_due_collected_total",
				Help:      "Total number of due payloads handed to delivery",
			},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_deliveries_total",
				Help:      "Total number of delivery outcomes",
			},
			[]string{"result"},
		),
		tasksDue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dispatch_tasks_due",
				Help:      "Number of recurring tasks due at the last poll",
			},
		),
		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_poll_duration_seconds",
				Help:      "Duration of a collect_due poll",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		remindersDrop: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_reminders_dropped_total",
				Help:      "Reminders failed during collection because their event was missing or inactive",
			},
		),
	}

	reg.MustRegister(
		m.dueCollected,
		m.deliveries,
		m.tasksDue,
		m.pollDuration,
		m.remindersDrop,
	)

	return m
}

func (m *PrometheusMetrics) RecordPoll(due int, duration time.Duration) {
	m.dueCollected.Add(float64(due))
	m.tasksDue.Set(float64(due))
	m.pollDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordDelivery(result string) {
	m.deliveries.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) RecordReminderDropped() {
	m.remindersDrop.Inc()
}

// Handler returns the /metrics HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
