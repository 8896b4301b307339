// Package retry provides a fixed-delay retry combinator.
// Every retrying operation in feedmail (resource fetch, feed parse, mail send) runs
// through Do with a Config, so attempt counts and delays stay data-driven.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int `yaml:"attempts"`

	// Delay is the fixed pause between two attempts. No pause follows the last attempt.
	Delay time.Duration `yaml:"delay"`
}

// ResourceFetchConfig returns the policy for downloading JSON resources.
// 3 attempts with a 2 second pause.
func ResourceFetchConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
	}
}

// TextFetchConfig returns the policy for downloading raw text resources such as
// the email template. A single attempt; the local fallback covers failures.
func TextFetchConfig() Config {
	return Config{
		MaxAttempts: 1,
		Delay:       2 * time.Second,
	}
}

// FeedParseConfig returns the policy for fetching and parsing the feed until it yields articles.
func FeedParseConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
	}
}

// MailSendConfig returns the policy for SMTP delivery of a single message.
func MailSendConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       3 * time.Second,
	}
}

// Attempts returns the effective attempt count.
func (c Config) Attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// Validate checks that the policy is usable.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must be non-negative, got %v", c.Delay)
	}
	return nil
}

// Do runs fn until it returns nil or the attempts are exhausted, sleeping cfg.Delay in between.
// fn receives the 1-based attempt number. The last error is returned wrapped with the
// attempt count; a canceled context aborts the wait and returns the context error.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	return DoWithLogger(ctx, cfg, slog.Default(), fn)
}

// DoWithLogger is Do with an explicit logger for the retry messages.
func DoWithLogger(ctx context.Context, cfg Config, logger *slog.Logger, fn func(attempt int) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := cfg.Attempts()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		// Don't wait after last attempt
		if attempt == maxAttempts {
			break
		}

		logger.Debug("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", cfg.Delay),
			slog.Any("error", lastErr))

		if err := sleep(ctx, cfg.Delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, lastErr)
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do returns it immediately without further attempts.
// Do returns the original err, not the wrapper. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
