// Package dispatch runs one notification cycle: load the previous snapshot,
// parse the feed, persist the new snapshot, and mail every new article.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/mailer"
	"feedmail/internal/infra/template"
	"feedmail/internal/observability/logging"
	"feedmail/internal/observability/tracing"
	"feedmail/internal/resilience/retry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyFeed marks a feed parse that produced no articles.
var ErrEmptyFeed = errors.New("feed returned no articles")

// StateLoader reads the previous snapshot. It must not fail; an unreadable
// snapshot is reported as the empty state.
type StateLoader interface {
	Load(ctx context.Context) entity.FeedState
}

// StateSaver writes the next snapshot.
type StateSaver interface {
	Save(articles []entity.Article, failCount int, path string) error
}

// FeedParser returns the newest articles of a feed, or an empty slice.
type FeedParser interface {
	Parse(ctx context.Context, feedURL string, maxCount int) []entity.Article
}

// TemplateLoader returns the email template source.
type TemplateLoader interface {
	Load(ctx context.Context) string
}

// SubscriberLoader returns the recipient addresses.
type SubscriberLoader interface {
	Load(ctx context.Context) []string
}

// Deliverer sends one email and reports whether it was accepted.
type Deliverer interface {
	Deliver(ctx context.Context, msg mailer.Message) bool
}

// Config holds the run parameters.
type Config struct {
	FeedURL         string
	MaxArticles     int
	FailThreshold   int
	StatePath       string
	SubjectTemplate string
	Site            entity.SiteInfo
	FeedPolicy      retry.Config
	DryRun          bool
}

// Service orchestrates one run. All dependencies are required.
type Service struct {
	StateLoader StateLoader
	StateSaver  StateSaver
	FeedParser  FeedParser
	Templates   TemplateLoader
	Subscribers SubscriberLoader
	Mailer      Deliverer
	Config      Config
	Logger      *slog.Logger
	Tracer      trace.Tracer
	// RunID tags logs and stats. Generated when empty.
	RunID string
}

// RunStats contains statistics about a run.
type RunStats struct {
	RunID          string
	FeedArticles   int
	NewArticles    int
	FailCount      int
	StatePersisted bool
	Delivered      int
	DeliveryFailed int
	Skipped        int
	Duration       time.Duration
}

// Run executes the cycle. Remote failures are absorbed and logged; the returned
// error is non-nil only when ctx is canceled.
func (s *Service) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats := RunStats{RunID: s.RunID}
	logger := s.logger()
	if stats.RunID == "" {
		stats.RunID = uuid.NewString()
		logger = logger.With(slog.String("run_id", stats.RunID))
	}
	cfg := s.config()

	if cfg.DryRun {
		logger.Info("dry run: state and email will not be written")
	}

	prior := s.loadState(ctx)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	latest := s.parseFeed(ctx, logger, cfg)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	stats.FeedArticles = len(latest)

	stats.FailCount = NextFailCount(prior.FailCount, len(latest) > 0)
	if len(latest) == 0 {
		logger.Warn("feed returned no articles",
			slog.Int("fail_count", stats.FailCount))
	}

	if ShouldPersist(latest, stats.FailCount, cfg.FailThreshold) {
		stats.StatePersisted = s.persistState(ctx, logger, cfg, latest, stats.FailCount)
	} else {
		logger.Info("keeping previous state",
			slog.Int("fail_count", stats.FailCount),
			slog.Int("fail_threshold", cfg.FailThreshold))
	}

	fresh := NewArticles(latest, prior.Articles)
	stats.NewArticles = len(fresh)
	if len(fresh) == 0 {
		logger.Info("no new articles, nothing to send")
		stats.Duration = time.Since(start)
		return stats, nil
	}

	logger.Info("new articles found", slog.Int("count", len(fresh)))
	if err := s.deliver(ctx, logger, cfg, fresh, &stats); err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}

	stats.Duration = time.Since(start)
	logger.Info("run completed",
		slog.Int("feed_articles", stats.FeedArticles),
		slog.Int("new_articles", stats.NewArticles),
		slog.Int("delivered", stats.Delivered),
		slog.Int("failed", stats.DeliveryFailed),
		slog.Int("fail_count", stats.FailCount),
		slog.Bool("state_persisted", stats.StatePersisted),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) loadState(ctx context.Context) entity.FeedState {
	ctx, span := tracing.StartSpan(ctx, s.Tracer, "feedmail.load_state")
	defer span.End()

	state := s.StateLoader.Load(ctx).Normalize()
	span.SetAttributes(
		attribute.Int("articles", len(state.Articles)),
		attribute.Int("fail_count", state.FailCount))
	return state
}

// parseFeed retries the parse under the feed policy until it yields articles.
func (s *Service) parseFeed(ctx context.Context, logger *slog.Logger, cfg Config) []entity.Article {
	ctx, span := tracing.StartSpan(ctx, s.Tracer, "feedmail.parse_feed",
		attribute.String("feed_url", cfg.FeedURL))
	defer span.End()

	var latest []entity.Article
	err := retry.DoWithLogger(ctx, cfg.FeedPolicy, logger, func(attempt int) error {
		latest = s.FeedParser.Parse(ctx, cfg.FeedURL, cfg.MaxArticles)
		if len(latest) == 0 {
			logger.Warn("feed parse attempt returned no articles",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.FeedPolicy.Attempts()))
			return ErrEmptyFeed
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return []entity.Article{}
	}
	span.SetAttributes(attribute.Int("articles", len(latest)))
	return latest
}

func (s *Service) persistState(ctx context.Context, logger *slog.Logger, cfg Config, latest []entity.Article, failCount int) bool {
	_, span := tracing.StartSpan(ctx, s.Tracer, "feedmail.persist_state",
		attribute.Int("articles", len(latest)),
		attribute.Int("fail_count", failCount),
		attribute.Bool("dry_run", cfg.DryRun))
	defer span.End()

	if cfg.DryRun {
		logger.Info("dry run: would write state",
			slog.String("path", cfg.StatePath),
			slog.Int("articles", len(latest)),
			slog.Int("fail_count", failCount))
		return false
	}

	if err := s.StateSaver.Save(latest, failCount, cfg.StatePath); err != nil {
		tracing.RecordError(span, err)
		logger.Error("failed to write state file",
			slog.String("path", cfg.StatePath),
			slog.Any("error", err))
		return false
	}
	logger.Info("state written",
		slog.String("path", cfg.StatePath),
		slog.Int("articles", len(latest)),
		slog.Int("fail_count", failCount))
	return true
}

func (s *Service) deliver(ctx context.Context, logger *slog.Logger, cfg Config, fresh []entity.Article, stats *RunStats) error {
	ctx, span := tracing.StartSpan(ctx, s.Tracer, "feedmail.deliver",
		attribute.Int("new_articles", len(fresh)),
		attribute.Bool("dry_run", cfg.DryRun))
	defer span.End()

	source := s.Templates.Load(ctx)
	recipients := s.Subscribers.Load(ctx)
	if len(recipients) == 0 {
		logger.Warn("no subscribers, emails will not be sent")
	}

	for _, article := range fresh {
		if err := ctx.Err(); err != nil {
			tracing.RecordError(span, err)
			return err
		}

		alog := logger.With(slog.String("link", article.Link))
		body, err := template.Render(source, article, cfg.Site)
		if err != nil {
			alog.Error("failed to render email, skipping article", slog.Any("error", err))
			stats.Skipped++
			continue
		}
		subject, err := template.RenderSubject(cfg.SubjectTemplate, article, cfg.Site)
		if err != nil {
			alog.Error("failed to render subject, skipping article", slog.Any("error", err))
			stats.Skipped++
			continue
		}

		if cfg.DryRun {
			alog.Info("dry run: would send email",
				slog.String("subject", subject),
				slog.Int("recipients", len(recipients)))
			stats.Skipped++
			continue
		}

		if s.Mailer.Deliver(ctx, mailer.Message{Recipients: recipients, Subject: subject, HTML: body}) {
			stats.Delivered++
		} else {
			stats.DeliveryFailed++
		}
	}

	span.SetAttributes(
		attribute.Int("delivered", stats.Delivered),
		attribute.Int("failed", stats.DeliveryFailed))
	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger
}

// config returns Config with defaults filled in.
func (s *Service) config() Config {
	cfg := s.Config
	if cfg.MaxArticles == 0 {
		cfg.MaxArticles = 5
	}
	if cfg.FailThreshold <= 0 {
		cfg.FailThreshold = DefaultFailThreshold
	}
	if cfg.FeedPolicy.MaxAttempts == 0 {
		cfg.FeedPolicy = retry.FeedParseConfig()
	}
	return cfg
}
