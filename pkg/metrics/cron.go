// Package metrics holds the prometheus collectors shared by the API and the workers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rentease"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// CronJobMetrics records outcomes of scheduled jobs. A nil receiver is a no-op.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	skipped     prometheus.Counter
}

// NewCronJobMetrics registers the cron collectors on reg. A nil reg yields a recorder
// that drops everything.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: "cron", Name: name, Help: help}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts(opts(
			"job_runs_total", "Cron job executions by result.")), []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Duration of cron jobs in seconds.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts(opts(
			"job_last_success_timestamp_seconds", "Unix time of the last successful run.")), []string{"job"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts(opts(
			"cycle_skipped_total", "Cron cycles skipped because another worker held the lock."))),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess, m.skipped)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if c == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

// IncSuccess counts a successful run and stamps its completion time.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), resultSuccess).Inc()
	c.lastSuccess.WithLabelValues(normalizeLabel(job)).SetToCurrentTime()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), resultFailure).Inc()
}

// IncSkipped counts a cycle that lost the lock race.
func (c *CronJobMetrics) IncSkipped() {
	if c == nil {
		return
	}
	c.skipped.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
