package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"feedmail/internal/config"
	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/feed"
	"feedmail/internal/infra/fetcher"
	"feedmail/internal/infra/httpclient"
	"feedmail/internal/infra/mailer"
	"feedmail/internal/infra/statestore"
	"feedmail/internal/infra/subscriber"
	"feedmail/internal/infra/template"
	"feedmail/internal/observability/logging"
	"feedmail/internal/observability/metrics"
	"feedmail/internal/observability/tracing"
	"feedmail/internal/usecase/dispatch"
)

// metricsExportTimeout bounds the Pushgateway request after a run.
const metricsExportTimeout = 10 * time.Second

func newRunCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one notification cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedmail(cmd.Context(), opts, stderr)
		},
	}
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func initLogger(stderr io.Writer) *slog.Logger {
	logOpts := logging.OptionsFromEnv()
	logOpts.Writer = stderr
	logger := logging.New(logOpts)
	slog.SetDefault(logger)
	return logger
}

// runFeedmail loads configuration, wires the components and runs one cycle.
// Only configuration errors are returned.
func runFeedmail(ctx context.Context, opts *rootOptions, stderr io.Writer) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return fmt.Errorf("%w: load %s: %v", entity.ErrInvalidConfig, opts.envFile, err)
	}

	runID := logging.NewRunID()
	logger := logging.WithRunID(initLogger(stderr), runID)

	cfg, err := config.Load(config.NewEnv())
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return err
	}

	smtp, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTP.Server,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Sender,
		Password: cfg.SMTP.Password,
		UseTLS:   cfg.SMTP.UseTLS,
	})
	if err != nil {
		logger.Error("invalid SMTP configuration", slog.Any("error", err))
		return fmt.Errorf("%w: %v", entity.ErrInvalidConfig, err)
	}

	logger.Info("feedmail starting",
		slog.String("version", version),
		slog.String("feed", cfg.RSSURL),
		slog.String("smtp_server", cfg.SMTP.Server),
		slog.Int("smtp_port", cfg.SMTP.Port),
		slog.Bool("smtp_starttls", cfg.SMTP.UseTLS),
		slog.String("repository", cfg.Site.RepoID),
		slog.Bool("dry_run", opts.dryRun))

	svc := buildService(cfg, smtp, logger)
	svc.RunID = runID
	svc.Config.DryRun = opts.dryRun

	stats, err := svc.Run(ctx)
	if err != nil {
		logger.Warn("run interrupted", slog.Any("error", err))
	}

	exportMetrics(ctx, cfg, stats, logger)
	return nil
}

// buildService wires the run components from cfg.
func buildService(cfg config.Config, sender mailer.Sender, logger *slog.Logger) *dispatch.Service {
	policy := cfg.Policy
	f := fetcher.New(httpclient.NewRestyClient(policy.HTTPTimeout),
		fetcher.WithLogger(logger),
		fetcher.WithJSONPolicy(policy.ResourceFetch),
		fetcher.WithTextPolicy(policy.TextFetch))

	mailCfg := mailer.DefaultConfig(cfg.SMTP.Sender)
	mailCfg.Mode = cfg.Mail.RecipientMode
	mailCfg.Retry = policy.MailSend
	mailCfg.RatePerSecond = cfg.Mail.RatePerSecond
	mailCfg.BreakerThreshold = cfg.Mail.BreakerThreshold

	return &dispatch.Service{
		StateLoader: statestore.NewRemoteLoader(f, cfg.Remote()),
		StateSaver:  statestore.NewFileSaver(),
		FeedParser:  feed.NewParser(f),
		Templates:   template.NewSource(f, cfg.TemplateURL, cfg.TemplateFallback),
		Subscribers: subscriber.NewSource(f, cfg.SubscribeURL),
		Mailer:      mailer.New(sender, mailCfg, logger),
		Config: dispatch.Config{
			FeedURL:         cfg.RSSURL,
			MaxArticles:     policy.MaxArticles,
			FailThreshold:   policy.FailThreshold,
			StatePath:       cfg.State.File,
			SubjectTemplate: cfg.Mail.SubjectTemplate,
			Site:            cfg.Site,
			FeedPolicy:      policy.FeedParse,
		},
		Logger: logger,
		Tracer: tracing.GetTracer(),
	}
}

// exportMetrics writes run metrics to the configured sinks. Failures are logged.
func exportMetrics(ctx context.Context, cfg config.Config, stats dispatch.RunStats, logger *slog.Logger) {
	if cfg.Metrics.Textfile == "" && cfg.Metrics.PushgatewayURL == "" {
		return
	}

	m := metrics.NewRunMetrics()
	m.Record(metrics.RunResult{
		FeedArticles:   stats.FeedArticles,
		NewArticles:    stats.NewArticles,
		FailCount:      stats.FailCount,
		StatePersisted: stats.StatePersisted,
		Delivered:      stats.Delivered,
		DeliveryFailed: stats.DeliveryFailed,
		Skipped:        stats.Skipped,
		Duration:       stats.Duration,
		FinishedAt:     time.Now(),
	})

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics textfile", slog.Any("error", err))
		}
	}
	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsExportTimeout)
		defer cancel()
		if err := m.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Site.RepoID); err != nil {
			logger.Warn("failed to push metrics", slog.Any("error", err))
		}
	}
}
