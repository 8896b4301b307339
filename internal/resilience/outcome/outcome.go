// Package outcome provides a result type for remote reads that may be unavailable.
// Fetchers return an Outcome instead of an error so that every caller has to pick
// the default it substitutes when the remote resource could not be obtained.
package outcome

// Outcome holds either a value (Ok) or the reason it could not be obtained (Unavailable).
// The zero value is Unavailable with an empty reason.
type Outcome[T any] struct {
	value  T
	ok     bool
	reason string
}

// Ok wraps a successfully obtained value.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Unavailable reports that no value could be obtained.
// The reason is kept for logging only.
func Unavailable[T any](reason string) Outcome[T] {
	return Outcome[T]{reason: reason}
}

// Get returns the value and whether it is present.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsOk reports whether the outcome carries a value.
func (o Outcome[T]) IsOk() bool {
	return o.ok
}

// OrElse returns the value when present and def otherwise.
func (o Outcome[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// Reason returns why the value is unavailable, or "" for an Ok outcome.
func (o Outcome[T]) Reason() string {
	if o.ok {
		return ""
	}
	return o.reason
}
