// Package config provides helpers for reading typed configuration values from
// the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Env reads variables, trying each prefix in order for every key.
// The zero value reads the process environment with no prefixes.
type Env struct {
	// Prefixes are tried in order; "" means the bare key. Empty means {""}.
	Prefixes []string
	// Getenv replaces os.Getenv, mainly for tests.
	Getenv func(string) string
}

// NewEnv returns an Env over the process environment that accepts key and
// every prefix+key, the bare key taking precedence.
//
// Example:
//
//	env := NewEnv("INPUT_")
//	url, _ := env.Lookup("RSS_URL") // RSS_URL, then INPUT_RSS_URL
func NewEnv(prefixes ...string) Env {
	return Env{Prefixes: append([]string{""}, prefixes...)}
}

// Lookup returns the first non-blank value among the key's variants and the
// variable name that supplied it. Surrounding whitespace is trimmed.
func (e Env) Lookup(key string) (value, name string, ok bool) {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	prefixes := e.Prefixes
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	for _, p := range prefixes {
		if v := strings.TrimSpace(getenv(p + key)); v != "" {
			return v, p + key, true
		}
	}
	return "", "", false
}

// String returns the value of key or defaultValue if unset.
func (e Env) String(key, defaultValue string) string {
	if v, _, ok := e.Lookup(key); ok {
		return v
	}
	return defaultValue
}

// Int returns key parsed as an integer. An unparseable value logs a warning and
// yields defaultValue.
func (e Env) Int(key string, defaultValue int) int {
	v, name, ok := e.Lookup(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer value for environment variable, using default",
			slog.String("key", name),
			slog.String("value", v),
			slog.Int("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return n
}

// Float returns key parsed as a float64, with the same fallback as Int.
func (e Env) Float(key string, defaultValue float64) float64 {
	v, name, ok := e.Lookup(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number value for environment variable, using default",
			slog.String("key", name),
			slog.String("value", v),
			slog.Float64("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return f
}

// Bool returns key as a boolean.
//
// Accepted true values: "1", "t", "true", "yes", "on" (any case)
// Accepted false values: "0", "f", "false", "no", "off" (any case)
func (e Env) Bool(key string, defaultValue bool) bool {
	v, name, ok := e.Lookup(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		slog.Warn("invalid boolean value for environment variable, using default",
			slog.String("key", name),
			slog.String("value", v),
			slog.Bool("default", defaultValue))
		return defaultValue
	}
}
