// Package statestore reads the previous run's FeedState from the repository that
// publishes it and writes the next snapshot to a local file.
package statestore

import (
	"context"
	"log/slog"
	"strings"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/fetcher"
)

const (
	// DefaultRawBaseURL serves raw repository files.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	// DefaultBranch is the branch the invoking workflow publishes the snapshot to.
	DefaultBranch = "output"
	// DefaultRemotePath is the snapshot path inside the branch.
	DefaultRemotePath = "v2/last_articles.json"
)

// RemoteConfig locates the published snapshot.
type RemoteConfig struct {
	BaseURL string
	RepoID  string
	Branch  string
	Path    string
	Token   string
}

// URL returns the snapshot location, filling defaults for empty fields.
func (c RemoteConfig) URL() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultRawBaseURL
	}
	branch := c.Branch
	if branch == "" {
		branch = DefaultBranch
	}
	p := c.Path
	if p == "" {
		p = DefaultRemotePath
	}
	return strings.TrimRight(base, "/") + "/" + strings.Trim(c.RepoID, "/") + "/" + branch + "/" + strings.TrimLeft(p, "/")
}

// Headers returns the request headers for the snapshot, with a bearer token when set.
func (c RemoteConfig) Headers() map[string]string {
	headers := map[string]string{}
	if c.Token != "" {
		headers["Authorization"] = "Bearer " + c.Token
	}
	return headers
}

// RemoteLoader loads the previous FeedState.
type RemoteLoader struct {
	fetcher *fetcher.ResourceFetcher
	cfg     RemoteConfig
	logger  *slog.Logger
}

// NewRemoteLoader creates a loader reading through f.
func NewRemoteLoader(f *fetcher.ResourceFetcher, cfg RemoteConfig) *RemoteLoader {
	return &RemoteLoader{fetcher: f, cfg: cfg, logger: f.Logger()}
}

// Load returns the previous snapshot, or an empty one when it cannot be read.
// An unreadable snapshot is treated as a first run.
func (l *RemoteLoader) Load(ctx context.Context) entity.FeedState {
	res := fetcher.FetchJSON[entity.FeedState](ctx, l.fetcher, l.cfg.URL(), l.cfg.Headers())
	state, ok := res.Get()
	if !ok {
		l.logger.Warn("previous state unavailable, starting from empty state",
			slog.String("reason", res.Reason()))
		return entity.EmptyFeedState()
	}

	state = state.Normalize()
	l.logger.Info("loaded previous state",
		slog.Int("articles", len(state.Articles)),
		slog.Int("fail_count", state.FailCount))
	return state
}
