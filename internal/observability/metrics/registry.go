package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedmail"

// RunMetrics holds the collectors for a single run on a private registry.
type RunMetrics struct {
	registry *prometheus.Registry

	// FailCount is the number of consecutive runs whose feed came back empty
	FailCount prometheus.Gauge

	// FeedArticles is the number of articles parsed from the feed
	FeedArticles prometheus.Gauge

	// NewArticles is the number of articles not seen in the previous run
	NewArticles prometheus.Gauge

	// StatePersisted is 1 when the snapshot file was written
	StatePersisted prometheus.Gauge

	// RunDuration is the wall time of the run in seconds
	RunDuration prometheus.Gauge

	// LastRunTimestamp is the completion time as a Unix timestamp
	LastRunTimestamp prometheus.Gauge

	// DeliveriesTotal counts emails by status (delivered, failed, skipped)
	DeliveriesTotal *prometheus.CounterVec
}

// NewRunMetrics creates the collectors on a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		FailCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fail_count",
			Help:      "Consecutive runs in which the feed returned no articles",
		}),
		FeedArticles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_articles",
			Help:      "Articles parsed from the feed in the last run",
		}),
		NewArticles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "new_articles",
			Help:      "Articles not present in the previous snapshot",
		}),
		StatePersisted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_persisted",
			Help:      "1 if the state snapshot was written in the last run",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run completed",
		}),
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Emails handled in the last run by status",
		}, []string{"status"}),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}
