// Package feed provides the RSS/Atom feed parser.
// It uses the gofeed library to parse feed content fetched through the shared HTTP client.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/fetcher"

	"github.com/mmcdole/gofeed"
)

// DefaultMaxCount is the number of feed items considered per run.
const DefaultMaxCount = 5

// ErrMalformedFeed is returned when the feed body cannot be parsed as RSS or Atom.
var ErrMalformedFeed = errors.New("malformed feed")

// Parser turns a feed URL into the newest articles.
type Parser struct {
	fetcher *fetcher.ResourceFetcher
	logger  *slog.Logger
}

// NewParser creates a Parser that downloads feeds through f.
func NewParser(f *fetcher.ResourceFetcher) *Parser {
	return &Parser{
		fetcher: f,
		logger:  f.Logger(),
	}
}

// Parse returns at most maxCount articles from feedURL in feed order.
// It never fails: fetch errors and malformed feeds are logged and yield an empty slice.
func (p *Parser) Parse(ctx context.Context, feedURL string, maxCount int) []entity.Article {
	articles, err := p.Fetch(ctx, feedURL, maxCount)
	if err != nil {
		if errors.Is(err, ErrMalformedFeed) {
			p.logger.Error("feed is malformed",
				slog.String("url", feedURL),
				slog.Any("error", err))
		} else {
			p.logger.Error("failed to fetch feed",
				slog.String("url", feedURL),
				slog.Any("error", err))
		}
		return []entity.Article{}
	}
	return articles
}

// Fetch is Parse with the error exposed. A parse failure wraps ErrMalformedFeed.
func (p *Parser) Fetch(ctx context.Context, feedURL string, maxCount int) ([]entity.Article, error) {
	body, err := p.fetcher.Get(ctx, feedURL, nil)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	return toArticles(feed.Items, maxCount), nil
}

// toArticles maps the first maxCount items. A non-positive maxCount takes none.
func toArticles(items []*gofeed.Item, maxCount int) []entity.Article {
	n := len(items)
	if maxCount < n {
		n = max(maxCount, 0)
	}

	articles := make([]entity.Article, 0, n)
	for _, it := range items[:n] {
		if it == nil {
			continue
		}
		// fall back to the title when the item has no description
		summary := it.Description
		if summary == "" {
			summary = it.Title
		}
		articles = append(articles, entity.Article{
			Title:     it.Title,
			Link:      it.Link,
			Published: it.Published,
			Summary:   summary,
		})
	}
	return articles
}
