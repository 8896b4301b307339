// Package fetcher downloads remote resources (JSON documents and raw text) with
// fixed-delay retries and reports the result as an outcome.Outcome.
//
// A failed fetch never surfaces as an error: after the retry policy is exhausted
// the caller receives Unavailable and substitutes its own default.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"feedmail/internal/infra/httpclient"
	"feedmail/internal/observability/logging"
	"feedmail/internal/resilience/outcome"
	"feedmail/internal/resilience/retry"
)

// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// maxSnippetLen bounds the response body excerpt carried in error messages.
const maxSnippetLen = 512

// ResourceFetcher performs GET requests against remote resources.
//
// Thread safety: ResourceFetcher is safe for concurrent use as long as the
// underlying httpclient.Client is.
type ResourceFetcher struct {
	client     httpclient.Client
	jsonPolicy retry.Config
	textPolicy retry.Config
	logger     *slog.Logger
}

// Option configures a ResourceFetcher.
type Option func(*ResourceFetcher)

// WithLogger sets the logger used for attempt failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *ResourceFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithJSONPolicy overrides the retry policy used by FetchJSON.
func WithJSONPolicy(cfg retry.Config) Option {
	return func(f *ResourceFetcher) { f.jsonPolicy = cfg }
}

// WithTextPolicy overrides the retry policy used by FetchText.
func WithTextPolicy(cfg retry.Config) Option {
	return func(f *ResourceFetcher) { f.textPolicy = cfg }
}

// New creates a ResourceFetcher over client.
//
// Defaults:
//   - JSON policy: retry.ResourceFetchConfig (3 attempts, 2s delay)
//   - text policy: retry.TextFetchConfig (1 attempt)
//   - logger: discard
func New(client httpclient.Client, opts ...Option) *ResourceFetcher {
	f := &ResourceFetcher{
		client:     client,
		jsonPolicy: retry.ResourceFetchConfig(),
		textPolicy: retry.TextFetchConfig(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Logger returns the fetcher's logger.
func (f *ResourceFetcher) Logger() *slog.Logger {
	return f.logger
}

// Get performs a single GET request and returns the body of a 2xx response.
// Any other status yields an error wrapping ErrUnexpectedStatus with a body snippet.
func (f *ResourceFetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := f.client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: %d body: %s", ErrUnexpectedStatus, code, responseSnippet(resp.Body()))
	}
	return resp.Body(), nil
}

// FetchJSON downloads url and decodes the body into T, retrying with the fetcher's
// JSON policy. Transport errors, non-2xx statuses and undecodable bodies all count
// as failed attempts.
//
// Example:
//
//	type list struct{ Emails []string `json:"emails"` }
//	res := fetcher.FetchJSON[list](ctx, f, url, nil)
//	emails := res.OrElse(list{}).Emails
func FetchJSON[T any](ctx context.Context, f *ResourceFetcher, url string, headers map[string]string) outcome.Outcome[T] {
	var value T
	err := f.do(ctx, f.jsonPolicy, url, func(attempt int) error {
		body, err := f.Get(ctx, url, headers)
		if err != nil {
			return err
		}
		var decoded T
		if err := json.Unmarshal(body, &decoded); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
		value = decoded
		return nil
	})
	if err != nil {
		f.logger.Warn("resource unavailable",
			slog.String("url", url),
			slog.Any("error", err))
		return outcome.Unavailable[T](err.Error())
	}
	return outcome.Ok(value)
}

// FetchText downloads url as a string with the text policy.
func (f *ResourceFetcher) FetchText(ctx context.Context, url string, headers map[string]string) outcome.Outcome[string] {
	var text string
	err := f.do(ctx, f.textPolicy, url, func(attempt int) error {
		body, err := f.Get(ctx, url, headers)
		if err != nil {
			return err
		}
		text = string(body)
		return nil
	})
	if err != nil {
		f.logger.Warn("resource unavailable",
			slog.String("url", url),
			slog.Any("error", err))
		return outcome.Unavailable[string](err.Error())
	}
	return outcome.Ok(text)
}

// do runs fn under policy, logging each failed attempt.
func (f *ResourceFetcher) do(ctx context.Context, policy retry.Config, url string, fn func(attempt int) error) error {
	return retry.DoWithLogger(ctx, policy, f.logger, func(attempt int) error {
		err := fn(attempt)
		if err != nil {
			f.logger.Warn("fetch attempt failed",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", policy.Attempts()),
				slog.Any("error", err))
		}
		return err
	})
}

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
