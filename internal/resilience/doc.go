// Package resilience provides the fault tolerance patterns used by feedmail.
// Every remote interaction in a run is best-effort: failures are retried a fixed
// number of times and then degrade to a documented default instead of an error.
//
// The package supports:
//   - Outcome values that distinguish a fetched value from an unavailable one
//   - Fixed-delay retry driven by per-operation policies
//   - Circuit breakers for repeated delivery failures within a run
//
// Usage Example:
//
//	err := retry.Do(ctx, retry.MailSendConfig(), func(attempt int) error {
//	    return send()
//	})
//
//	state := loader.Load(ctx) // outcome.Unavailable degrades to the empty snapshot
package resilience
