// Package config assembles feedmail's run configuration from the environment,
// an optional .env file and an optional YAML policy file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/mailer"
	"feedmail/internal/infra/statestore"
	pkgconfig "feedmail/pkg/config"
)

// InputPrefix is the prefix a CI action runner adds to action inputs.
// Every key is also accepted in this prefixed form.
const InputPrefix = "INPUT_"

// Environment variable names.
const (
	EnvRSSURL           = "RSS_URL"
	EnvSubscribeURL     = "SUBSCRIBE_JSON_URL"
	EnvTemplateURL      = "EMAIL_TEMPLATE_URL"
	EnvSMTPServer       = "SMTP_SERVER"
	EnvSMTPPort         = "SMTP_PORT"
	EnvSenderEmail      = "SENDER_EMAIL"
	EnvSMTPPassword     = "SMTP_PASSWORD"
	EnvRepository       = "GITHUB_REPOSITORY"
	EnvToken            = "GITHUB_TOKEN"
	EnvWebsiteTitle     = "WEBSITE_TITLE"
	EnvWebsiteIcon      = "WEBSITE_ICON"
	EnvSMTPUseTLS       = "SMTP_USE_TLS"
	EnvStateBranch      = "STATE_BRANCH"
	EnvStateFile        = "STATE_FILE"
	EnvStateRawBaseURL  = "STATE_RAW_BASE_URL"
	EnvTemplateFallback = "EMAIL_TEMPLATE_FALLBACK"
	EnvSubjectTemplate  = "MAIL_SUBJECT_TEMPLATE"
	EnvRecipientMode    = "MAIL_RECIPIENT_MODE"
	EnvMailRate         = "MAIL_RATE_PER_SECOND"
	EnvBreakerThreshold = "MAIL_BREAKER_THRESHOLD"
	EnvPolicyFile       = "FEEDMAIL_POLICY_FILE"
	EnvMetricsTextfile  = "METRICS_TEXTFILE"
	EnvPushgatewayURL   = "METRICS_PUSHGATEWAY_URL"
)

// Config is the validated run configuration.
type Config struct {
	RSSURL       string
	SubscribeURL string
	TemplateURL  string

	SMTP SMTPConfig
	Mail MailConfig

	Site  entity.SiteInfo
	State StateConfig

	TemplateFallback string

	Metrics MetricsConfig
	Policy  Policy
}

// SMTPConfig describes the outgoing mail server. Password is never logged.
type SMTPConfig struct {
	Server   string
	Port     int
	Sender   string
	Password string
	UseTLS   bool
}

// MailConfig holds message and delivery settings.
type MailConfig struct {
	SubjectTemplate  string
	RecipientMode    mailer.RecipientMode
	RatePerSecond    float64
	BreakerThreshold int
}

// StateConfig locates the previous snapshot and the local output file.
// Token is never logged.
type StateConfig struct {
	RawBaseURL string
	Branch     string
	File       string
	Token      string
}

// MetricsConfig selects where run metrics are exported. Empty disables.
type MetricsConfig struct {
	Textfile       string
	PushgatewayURL string
}

// Remote returns the statestore location derived from the configuration.
func (c Config) Remote() statestore.RemoteConfig {
	return statestore.RemoteConfig{
		BaseURL: c.State.RawBaseURL,
		RepoID:  c.Site.RepoID,
		Branch:  c.State.Branch,
		Token:   c.State.Token,
	}
}

// Load reads the full configuration for a run. Missing required keys are
// reported together in one error wrapping entity.ErrMissingConfig; malformed
// values wrap entity.ErrInvalidConfig.
func Load(env pkgconfig.Env) (Config, error) {
	var missing []string
	require := func(key string) string {
		v, _, ok := env.Lookup(key)
		if !ok {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		RSSURL:       require(EnvRSSURL),
		SubscribeURL: require(EnvSubscribeURL),
		TemplateURL:  require(EnvTemplateURL),
		SMTP: SMTPConfig{
			Server:   require(EnvSMTPServer),
			Sender:   require(EnvSenderEmail),
			Password: require(EnvSMTPPassword),
		},
		Site: entity.SiteInfo{
			Title:  require(EnvWebsiteTitle),
			Icon:   require(EnvWebsiteIcon),
			RepoID: require(EnvRepository),
		},
		State: StateConfig{
			Token: require(EnvToken),
		},
	}
	portStr := require(EnvSMTPPort)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", entity.ErrMissingConfig, strings.Join(missing, ", "))
	}

	var errs []error
	port, err := parsePort(portStr)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.SMTP.Port = port
	cfg.SMTP.UseTLS = env.Bool(EnvSMTPUseTLS, true)

	cfg.State.RawBaseURL = env.String(EnvStateRawBaseURL, statestore.DefaultRawBaseURL)
	cfg.State.Branch = env.String(EnvStateBranch, statestore.DefaultBranch)
	cfg.State.File = env.String(EnvStateFile, statestore.DefaultFileName)
	cfg.TemplateFallback = env.String(EnvTemplateFallback, "")

	mode, err := mailer.ParseRecipientMode(env.String(EnvRecipientMode, ""))
	if err != nil {
		errs = append(errs, &entity.ValidationError{Field: EnvRecipientMode, Message: err.Error()})
	}
	cfg.Mail = MailConfig{
		SubjectTemplate:  env.String(EnvSubjectTemplate, ""),
		RecipientMode:    mode,
		RatePerSecond:    env.Float(EnvMailRate, 1),
		BreakerThreshold: env.Int(EnvBreakerThreshold, 6),
	}
	if cfg.Mail.RatePerSecond < 0 {
		errs = append(errs, &entity.ValidationError{Field: EnvMailRate, Message: "must not be negative"})
	}
	if cfg.Mail.BreakerThreshold < 0 {
		errs = append(errs, &entity.ValidationError{Field: EnvBreakerThreshold, Message: "must not be negative"})
	}

	cfg.Metrics = MetricsConfig{
		Textfile:       env.String(EnvMetricsTextfile, ""),
		PushgatewayURL: env.String(EnvPushgatewayURL, ""),
	}

	for _, u := range []struct{ field, value string }{
		{EnvRSSURL, cfg.RSSURL},
		{EnvSubscribeURL, cfg.SubscribeURL},
		{EnvTemplateURL, cfg.TemplateURL},
		{EnvStateRawBaseURL, cfg.State.RawBaseURL},
	} {
		if err := entity.ValidateURL(u.field, u.value); err != nil {
			errs = append(errs, err)
		}
	}
	if err := entity.ValidateEmail(EnvSenderEmail, cfg.SMTP.Sender); err != nil {
		errs = append(errs, err)
	}
	if !strings.Contains(cfg.Site.RepoID, "/") {
		errs = append(errs, &entity.ValidationError{Field: EnvRepository, Message: "must be in owner/name form"})
	}

	policy, err := LoadPolicy(env.String(EnvPolicyFile, ""))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Policy = policy

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// PreviewConfig is the subset needed to render a preview without sending mail.
type PreviewConfig struct {
	RSSURL           string
	TemplateURL      string
	TemplateFallback string
	SubjectTemplate  string
	Site             entity.SiteInfo
	Policy           Policy
}

// LoadPreview reads only what the preview command needs: the feed and template URLs.
func LoadPreview(env pkgconfig.Env) (PreviewConfig, error) {
	var missing []string
	for _, key := range []string{EnvRSSURL, EnvTemplateURL} {
		if _, _, ok := env.Lookup(key); !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return PreviewConfig{}, fmt.Errorf("%w: %s", entity.ErrMissingConfig, strings.Join(missing, ", "))
	}

	cfg := PreviewConfig{
		RSSURL:           env.String(EnvRSSURL, ""),
		TemplateURL:      env.String(EnvTemplateURL, ""),
		TemplateFallback: env.String(EnvTemplateFallback, ""),
		SubjectTemplate:  env.String(EnvSubjectTemplate, ""),
		Site: entity.SiteInfo{
			Title:  env.String(EnvWebsiteTitle, ""),
			Icon:   env.String(EnvWebsiteIcon, ""),
			RepoID: env.String(EnvRepository, ""),
		},
	}

	var errs []error
	if err := entity.ValidateURL(EnvRSSURL, cfg.RSSURL); err != nil {
		errs = append(errs, err)
	}
	if err := entity.ValidateURL(EnvTemplateURL, cfg.TemplateURL); err != nil {
		errs = append(errs, err)
	}
	policy, err := LoadPolicy(env.String(EnvPolicyFile, ""))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Policy = policy

	if len(errs) > 0 {
		return PreviewConfig{}, errors.Join(errs...)
	}
	return cfg, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, &entity.ValidationError{Field: EnvSMTPPort, Message: fmt.Sprintf("must be an integer between 1 and 65535, got %q", s)}
	}
	return port, nil
}

// HTTPTimeout returns the per-request timeout for remote reads.
func (c Config) HTTPTimeout() time.Duration {
	return c.Policy.HTTPTimeout
}
