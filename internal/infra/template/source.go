package template

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"feedmail/internal/infra/fetcher"
)

// DefaultFallbackName is the local template file looked up beside the executable.
const DefaultFallbackName = "email_template.html"

//go:embed default_template.html
var defaultTemplate string

// DefaultTemplate returns the template compiled into the binary.
func DefaultTemplate() string {
	return defaultTemplate
}

// Source resolves the email template: remote URL first, then a local file,
// then the compiled-in default.
type Source struct {
	fetcher      *fetcher.ResourceFetcher
	url          string
	fallbackPath string
	logger       *slog.Logger
}

// NewSource creates a Source. An empty fallbackPath means DefaultFallbackPath().
func NewSource(f *fetcher.ResourceFetcher, url, fallbackPath string) *Source {
	if fallbackPath == "" {
		fallbackPath = DefaultFallbackPath()
	}
	return &Source{
		fetcher:      f,
		url:          url,
		fallbackPath: fallbackPath,
		logger:       f.Logger(),
	}
}

// DefaultFallbackPath returns DefaultFallbackName in the executable's directory,
// or in the working directory when the executable cannot be located.
func DefaultFallbackPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFallbackName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFallbackName)
}

// Load returns the template text. It always returns a usable template.
func (s *Source) Load(ctx context.Context) string {
	if s.url != "" {
		res := s.fetcher.FetchText(ctx, s.url, nil)
		if text, ok := res.Get(); ok && strings.TrimSpace(text) != "" {
			return text
		}
		s.logger.Warn("email template download failed, using local template",
			slog.String("url", s.url),
			slog.String("path", s.fallbackPath),
			slog.String("reason", res.Reason()))
	}

	data, err := os.ReadFile(s.fallbackPath)
	if err == nil && strings.TrimSpace(string(data)) != "" {
		return string(data)
	}

	s.logger.Warn("local email template unreadable, using built-in template",
		slog.String("path", s.fallbackPath),
		slog.Any("error", err))
	return defaultTemplate
}
