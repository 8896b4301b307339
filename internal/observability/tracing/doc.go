// Package tracing provides OpenTelemetry tracing integration.
//
// feedmail creates one span per run phase (state load, feed parse, state
// persist, delivery). Without a configured TracerProvider the global no-op
// provider is used and spans cost nothing.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "feedmail.parse_feed")
//	defer span.End()
package tracing
