// Package subscriber loads the mailing list of feed subscribers.
package subscriber

import (
	"context"
	"log/slog"
	"strings"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/fetcher"
)

// List is the wire format of the subscriber document.
type List struct {
	Emails []string `json:"emails"`
}

// Source reads the subscriber document from a URL.
type Source struct {
	fetcher *fetcher.ResourceFetcher
	url     string
	logger  *slog.Logger
}

// NewSource creates a Source for url.
func NewSource(f *fetcher.ResourceFetcher, url string) *Source {
	return &Source{fetcher: f, url: url, logger: f.Logger()}
}

// Load returns the normalized subscriber addresses. An unavailable document
// yields an empty list. Malformed addresses are logged and skipped.
func (s *Source) Load(ctx context.Context) []string {
	res := fetcher.FetchJSON[List](ctx, s.fetcher, s.url, nil)
	if !res.IsOk() {
		s.logger.Warn("subscriber list unavailable", slog.String("reason", res.Reason()))
	}

	emails, invalid := Normalize(res.OrElse(List{}).Emails)
	for _, addr := range invalid {
		s.logger.Warn("skipping malformed subscriber address", slog.String("address", addr))
	}
	if res.IsOk() && len(emails) == 0 {
		s.logger.Warn("subscriber list is empty")
	}
	return emails
}

// Normalize trims addresses and drops blanks. Well-formed addresses are returned
// in valid with case-insensitive duplicates removed, keeping the first
// occurrence. Addresses that fail entity.ValidateEmail are returned in invalid.
func Normalize(emails []string) (valid, invalid []string) {
	seen := make(map[string]struct{}, len(emails))
	valid = make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if err := entity.ValidateEmail("emails", e); err != nil {
			invalid = append(invalid, e)
			continue
		}
		key := strings.ToLower(e)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, e)
	}
	return valid, invalid
}
