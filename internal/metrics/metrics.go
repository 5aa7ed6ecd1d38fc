package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventcal"

// Metrics groups the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	calendarsTotal   *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	downloadsTotal   *prometheus.CounterVec
	batchRunsTotal   *prometheus.CounterVec
	sessionsLive     prometheus.Gauge
	lastSweep        prometheus.Gauge
	generateDuration prometheus.Histogram
	calendarEvents   prometheus.Histogram
}

// New registers all collectors plus the Go/process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.calendarsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calendars_generated_total",
		Help:      "Calendars generated, by event origin",
	}, []string{"origin"})
	m.fallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_total",
		Help:      "Requests answered with synthesized events, by reason",
	}, []string{"reason"})
	m.downloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Calendar download attempts, by outcome",
	}, []string{"outcome"})
	m.batchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Scheduled events.ics generations, by outcome",
	}, []string{"outcome"})
	m.sessionsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_stored",
		Help:      "Calendar sessions currently held in memory",
	})
	m.lastSweep = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_last_sweep_timestamp_seconds",
		Help:      "Unix time of the last expired-session sweep",
	})
	m.generateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generate_duration_seconds",
		Help:      "Time spent building a calendar for one request",
		Buckets:   prometheus.DefBuckets,
	})
	m.calendarEvents = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calendar_events",
		Help:      "Number of events per generated calendar",
		Buckets:   []float64{1, 10, 20, 40, 70, 100, 140},
	})

	reg.MustRegister(
		m.calendarsTotal,
		m.fallbacksTotal,
		m.downloadsTotal,
		m.batchRunsTotal,
		m.sessionsLive,
		m.lastSweep,
		m.generateDuration,
		m.calendarEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCalendar records one generated calendar.
func (m *Metrics) ObserveCalendar(origin, fallbackReason string, eventCount int, took time.Duration) {
	if m == nil {
		return
	}
	m.calendarsTotal.WithLabelValues(origin).Inc()
	if fallbackReason != "" {
		m.fallbacksTotal.WithLabelValues(fallbackReason).Inc()
	}
	m.calendarEvents.Observe(float64(eventCount))
	m.generateDuration.Observe(took.Seconds())
}

// ObserveDownload records one download attempt ("ok" or "not_found").
func (m *Metrics) ObserveDownload(outcome string) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveBatch records one batch run ("ok" or "error").
func (m *Metrics) ObserveBatch(outcome string) {
	if m == nil {
		return
	}
	m.batchRunsTotal.WithLabelValues(outcome).Inc()
}

// SetSessions updates the stored-sessions gauges.
func (m *Metrics) SetSessions(n int, lastSweep time.Time) {
	if m == nil {
		return
	}
	m.sessionsLive.Set(float64(n))
	if !lastSweep.IsZero() {
		m.lastSweep.Set(float64(lastSweep.Unix()))
	}
}
