package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label.
const JobName = "feedmail"

// RunResult is the outcome of a run as seen by the metrics.
type RunResult struct {
	FeedArticles   int
	NewArticles    int
	FailCount      int
	StatePersisted bool
	Delivered      int
	DeliveryFailed int
	Skipped        int
	Duration       time.Duration
	FinishedAt     time.Time
}

// Record sets every collector from r.
func (m *RunMetrics) Record(r RunResult) {
	m.FailCount.Set(float64(r.FailCount))
	m.FeedArticles.Set(float64(r.FeedArticles))
	m.NewArticles.Set(float64(r.NewArticles))
	if r.StatePersisted {
		m.StatePersisted.Set(1)
	} else {
		m.StatePersisted.Set(0)
	}
	m.RunDuration.Set(r.Duration.Seconds())

	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	m.LastRunTimestamp.Set(float64(finished.Unix()))

	m.DeliveriesTotal.WithLabelValues("delivered").Add(float64(r.Delivered))
	m.DeliveriesTotal.WithLabelValues("failed").Add(float64(r.DeliveryFailed))
	m.DeliveriesTotal.WithLabelValues("skipped").Add(float64(r.Skipped))
}

// WriteTextfile writes the metrics in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push sends the metrics to a Pushgateway, replacing the previous group for
// the job and instance.
func (m *RunMetrics) Push(ctx context.Context, gatewayURL, instance string) error {
	pusher := push.New(gatewayURL, JobName).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
