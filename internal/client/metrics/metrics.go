// Package metrics exposes sync engine observations as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promptkeeper"

// Collector implements syncer.Metrics on a private registry, so several
// collectors can live in one process.
type Collector struct {
	registry *prometheus.Registry

	passes     *prometheus.CounterVec
	skipped    prometheus.Counter
	uploads    prometheus.Counter
	downloads  prometheus.Counter
	failures   prometheus.Counter
	duration   prometheus.Histogram
	lastSyncAt prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "passes_total",
				Help:      "Sync passes by outcome.",
			},
			[]string{"status"},
		),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "skipped_total",
			Help:      "Sync triggers dropped because a pass was running.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "uploaded_records_total",
			Help:      "Records pushed to the remote store.",
		}),
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "downloaded_records_total",
			Help:      "Records applied from the remote store.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "failed_writes_total",
			Help:      "Individual record writes that failed during a pass.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pass_duration_seconds",
			Help:      "Duration of sync passes.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSyncAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pass.",
		}),
	}
	c.registry.MustRegister(c.passes, c.skipped, c.uploads, c.downloads, c.failures, c.duration, c.lastSyncAt)
	return c
}

func (c *Collector) ObserveSync(d time.Duration, uploaded, downloaded, failed int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.passes.WithLabelValues(status).Inc()
	c.duration.Observe(d.Seconds())
	c.uploads.Add(float64(uploaded))
	c.downloads.Add(float64(downloaded))
	c.failures.Add(float64(failed))
	if err == nil {
		c.lastSyncAt.SetToCurrentTime()
	}
}

func (c *Collector) SyncSkipped() {
	c.skipped.Inc()
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
