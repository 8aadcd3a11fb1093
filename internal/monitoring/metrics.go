// Package monitoring exposes prometheus metrics and reports errors to sentry.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crm"

// Metrics holds the collectors of the API and the background jobs
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	JobRuns              *prometheus.CounterVec
	JobDuration          *prometheus.HistogramVec
	NotificationsCreated prometheus.Counter
	RemindersSent        prometheus.Counter
	PendingNotifications prometheus.Gauge
}

// NewMetrics registers every collector on a private registry, together with
// the process and Go runtime collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Background job runs by outcome",
			},
			[]string{"job", "outcome"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of background job runs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		NotificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Contract expiry reminders created",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_emails_sent_total",
			Help:      "Reminder e-mails delivered",
		}),
		PendingNotifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_pending",
			Help:      "Unread reminders whose date has been reached",
		}),
	}

	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.RequestsTotal,
		m.RequestDuration,
		m.JobRuns,
		m.JobDuration,
		m.NotificationsCreated,
		m.RemindersSent,
		m.PendingNotifications,
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served request. route is the chi route pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveJob records one job run
func (m *Metrics) ObserveJob(job string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// SetPending updates the pending reminders gauge
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingNotifications.Set(float64(n))
}

func (m *Metrics) AddCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.NotificationsCreated.Add(float64(n))
}

func (m *Metrics) AddSent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RemindersSent.Add(float64(n))
}
