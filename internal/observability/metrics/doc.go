// Package metrics provides the Prometheus metrics describing one feedmail run.
//
// feedmail is not a long-running process, so nothing is served over HTTP. Each
// run fills a private registry which is then written to a node_exporter
// textfile and/or pushed to a Pushgateway. The fail_count gauge is how an
// alerting layer learns that the feed has been empty for several runs.
//
// Example usage:
//
//	m := metrics.NewRunMetrics()
//	m.Record(metrics.RunResult{FeedArticles: 5, NewArticles: 1, Delivered: 1})
//	if err := m.WriteTextfile("/var/lib/node_exporter/feedmail.prom"); err != nil {
//	    logger.Warn("failed to write metrics", slog.Any("error", err))
//	}
package metrics
