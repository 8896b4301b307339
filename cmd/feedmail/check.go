package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"feedmail/internal/config"
	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/feed"
	"feedmail/internal/infra/fetcher"
	"feedmail/internal/infra/httpclient"
	"feedmail/internal/infra/subscriber"
	"feedmail/internal/resilience/retry"
)

// Resource check statuses.
const (
	StatusOK          = "OK"
	StatusUnavailable = "UNAVAILABLE"
	StatusEmpty       = "EMPTY"
	StatusParseError  = "PARSE_ERROR"
)

var errUnhealthy = errors.New("one or more resources are not usable")

// ResourceCheck is the diagnostic result for one remote input.
type ResourceCheck struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	Items        int    `json:"items"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

func newCheckCmd(root *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe every remote input once and print a JSON report",
		Long: `check fetches the feed, subscriber list, email template and previous
state snapshot one time each, without retries, and reports whether feedmail
could use them. It exits non-zero when any input is unusable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), root, stdout, stderr)
		},
	}
}

func runCheck(ctx context.Context, root *rootOptions, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(root.envFile); err != nil {
		return fmt.Errorf("%w: load %s: %v", entity.ErrInvalidConfig, root.envFile, err)
	}
	logger := initLogger(stderr)

	cfg, err := config.Load(config.NewEnv())
	if err != nil {
		return err
	}

	once := retry.Config{MaxAttempts: 1}
	f := fetcher.New(httpclient.NewRestyClient(cfg.Policy.HTTPTimeout),
		fetcher.WithLogger(logger),
		fetcher.WithJSONPolicy(once),
		fetcher.WithTextPolicy(once))

	remote := cfg.Remote()
	checks := []ResourceCheck{
		timed("feed", cfg.RSSURL, func(c *ResourceCheck) {
			articles, err := feed.NewParser(f).Fetch(ctx, cfg.RSSURL, cfg.Policy.MaxArticles)
			switch {
			case errors.Is(err, feed.ErrMalformedFeed):
				c.Status, c.ErrorMessage = StatusParseError, err.Error()
			case err != nil:
				c.Status, c.ErrorMessage = StatusUnavailable, err.Error()
			default:
				c.Items = len(articles)
			}
		}),
		timed("subscribers", cfg.SubscribeURL, func(c *ResourceCheck) {
			res := fetcher.FetchJSON[subscriber.List](ctx, f, cfg.SubscribeURL, nil)
			list, ok := res.Get()
			if !ok {
				c.Status, c.ErrorMessage = StatusUnavailable, res.Reason()
				return
			}
			valid, invalid := subscriber.Normalize(list.Emails)
			c.Items = len(valid)
			if len(invalid) > 0 {
				c.ErrorMessage = fmt.Sprintf("%d malformed addresses will be skipped", len(invalid))
			}
		}),
		timed("template", cfg.TemplateURL, func(c *ResourceCheck) {
			res := f.FetchText(ctx, cfg.TemplateURL, nil)
			body, ok := res.Get()
			if !ok {
				c.Status, c.ErrorMessage = StatusUnavailable, res.Reason()
				return
			}
			c.Items = len(body)
		}),
		timed("state", remote.URL(), func(c *ResourceCheck) {
			res := fetcher.FetchJSON[entity.FeedState](ctx, f, remote.URL(), remote.Headers())
			state, ok := res.Get()
			if !ok {
				// expected before the first run has published a snapshot
				c.Status, c.ErrorMessage = StatusUnavailable, res.Reason()
				return
			}
			c.Items = len(state.Normalize().Articles)
		}),
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(checks); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	for _, c := range checks {
		if c.Status != StatusOK {
			return errUnhealthy
		}
	}
	return nil
}

// timed runs probe and records its wall time. A probe that sets no status and
// finds no items is reported as EMPTY.
func timed(name, url string, probe func(*ResourceCheck)) ResourceCheck {
	c := ResourceCheck{Name: name, URL: url}
	start := time.Now()
	probe(&c)
	c.ResponseTime = time.Since(start).Milliseconds()
	if c.Status == "" {
		c.Status = StatusOK
		if c.Items == 0 {
			c.Status = StatusEmpty
		}
	}
	return c
}
