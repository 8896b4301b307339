// Package observability groups feedmail's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog logger construction and run id tagging
//   - metrics: per-run Prometheus registry with textfile and Pushgateway export
//   - tracing: OpenTelemetry spans for each run phase
package observability
