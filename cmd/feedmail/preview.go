package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"feedmail/internal/config"
	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/feed"
	"feedmail/internal/infra/fetcher"
	"feedmail/internal/infra/httpclient"
	"feedmail/internal/infra/template"
	"feedmail/internal/observability/logging"
)

type previewOptions struct {
	index int
	out   string
}

func newPreviewCmd(root *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render one feed article with the email template",
		Long: `preview parses the feed and renders the article at --index with the
resolved email template. Nothing is sent and no state is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), root, opts, stdout, stderr)
		},
	}
	cmd.Flags().IntVar(&opts.index, "index", 0, "position of the article in the feed (0 is the newest)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write HTML to this file instead of stdout")
	return cmd
}

func runPreview(ctx context.Context, root *rootOptions, opts *previewOptions, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(root.envFile); err != nil {
		return fmt.Errorf("%w: load %s: %v", entity.ErrInvalidConfig, root.envFile, err)
	}
	logger := initLogger(stderr)

	cfg, err := config.LoadPreview(config.NewEnv())
	if err != nil {
		return err
	}
	if opts.index < 0 {
		return fmt.Errorf("%w: --index must not be negative", entity.ErrInvalidConfig)
	}

	f := fetcher.New(httpclient.NewRestyClient(cfg.Policy.HTTPTimeout),
		fetcher.WithLogger(logger),
		fetcher.WithJSONPolicy(cfg.Policy.ResourceFetch),
		fetcher.WithTextPolicy(cfg.Policy.TextFetch))

	articles := feed.NewParser(f).Parse(ctx, cfg.RSSURL, max(cfg.Policy.MaxArticles, opts.index+1))
	if opts.index >= len(articles) {
		return fmt.Errorf("feed has %d articles, no article at index %d", len(articles), opts.index)
	}
	article := articles[opts.index]

	source := template.NewSource(f, cfg.TemplateURL, cfg.TemplateFallback).Load(ctx)
	body, err := template.Render(source, article, cfg.Site)
	if err != nil {
		return fmt.Errorf("render %s: %w", article.Link, err)
	}
	subject, err := template.RenderSubject(cfg.SubjectTemplate, article, cfg.Site)
	if err != nil {
		return fmt.Errorf("render subject: %w", err)
	}
	logging.WithFields(logger, map[string]interface{}{
		"link":    article.Link,
		"subject": subject,
	}).Info("rendered preview")

	if opts.out == "" {
		_, err = io.WriteString(stdout, body)
		return err
	}
	if err := os.WriteFile(opts.out, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	logger.Info("preview written", slog.String("path", opts.out))
	return nil
}
