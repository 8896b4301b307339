// Package mailer delivers notification emails over SMTP.
//
// Delivery never fails loudly: Deliver reports success as a bool and logs every
// failed attempt. Messages are paced by a token bucket, retried with a fixed delay,
// and guarded by a circuit breaker that stops contacting a server that keeps
// refusing within one run.
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"feedmail/internal/observability/logging"
	"feedmail/internal/resilience/circuitbreaker"
	"feedmail/internal/resilience/retry"

	"github.com/wneessen/go-mail"
)

// ErrNoRecipients is reported when a message has nobody to go to.
var ErrNoRecipients = errors.New("no recipients")

// Config holds delivery settings that do not depend on the transport.
type Config struct {
	// From is the sender address, also used as the SMTP username.
	From string
	// Mode selects To or Bcc for subscriber addresses.
	Mode RecipientMode
	// Retry is the per-message retry policy. Default: retry.MailSendConfig.
	Retry retry.Config
	// RatePerSecond paces messages. 0 disables pacing.
	RatePerSecond float64
	// BreakerThreshold opens the circuit after this many consecutive failed
	// attempts. 0 disables the breaker.
	BreakerThreshold int
}

// DefaultConfig returns the delivery defaults for sender from.
func DefaultConfig(from string) Config {
	return Config{
		From:             from,
		Mode:             RecipientsTo,
		Retry:            retry.MailSendConfig(),
		RatePerSecond:    1,
		BreakerThreshold: 6,
	}
}

// Mailer sends Messages through a Sender.
type Mailer struct {
	sender  Sender
	cfg     Config
	limiter *RateLimiter
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a Mailer. A nil logger discards output.
func New(sender Sender, cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Mode == "" {
		cfg.Mode = RecipientsTo
	}

	m := &Mailer{
		sender:  sender,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RatePerSecond, 1),
		logger:  logger,
	}
	if cfg.BreakerThreshold > 0 {
		cbCfg := circuitbreaker.MailDeliveryConfig(uint32(cfg.BreakerThreshold))
		cbCfg.Logger = logger
		m.breaker = circuitbreaker.New(cbCfg)
	}
	return m
}

// Deliver sends msg and reports whether the server accepted it.
func (m *Mailer) Deliver(ctx context.Context, msg Message) bool {
	logger := m.logger.With(slog.String("subject", msg.Subject))

	if len(msg.Recipients) == 0 {
		logger.Warn("skipping delivery", slog.Any("error", ErrNoRecipients))
		return false
	}

	mimeMsg, skipped, err := compose(m.cfg.From, m.cfg.Mode, msg)
	for _, addr := range skipped {
		logger.Warn("skipping malformed recipient address", slog.String("address", addr))
	}
	if err != nil {
		logger.Error("failed to compose email", slog.Any("error", err))
		return false
	}

	if err := m.limiter.Allow(ctx); err != nil {
		logger.Error("delivery canceled while waiting for rate limiter", slog.Any("error", err))
		return false
	}

	policy := m.cfg.Retry
	err = retry.DoWithLogger(ctx, policy, logger, func(attempt int) error {
		err := m.send(ctx, mimeMsg)
		if err == nil {
			return nil
		}
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			logger.Error("smtp circuit breaker open, delivery rejected",
				slog.Int("attempt", attempt))
			return retry.Permanent(err)
		}
		logger.Error("email delivery attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", policy.Attempts()),
			slog.Any("error", err))
		return err
	})
	if err != nil {
		logger.Error("all email delivery attempts failed",
			slog.Int("recipients", len(msg.Recipients)),
			slog.Any("error", err))
		return false
	}

	logger.Info("email delivered",
		slog.Int("recipients", len(msg.Recipients)-len(skipped)),
		slog.String("mode", string(m.cfg.Mode)),
		slog.String("domains", recipientDomains(msg.Recipients)))
	return true
}

// send performs one attempt, through the breaker when one is configured.
func (m *Mailer) send(ctx context.Context, msg *mail.Msg) error {
	if m.breaker == nil {
		return m.sender.Send(ctx, msg)
	}
	return m.breaker.Run(func() error {
		return m.sender.Send(ctx, msg)
	})
}

// recipientDomains summarises recipients for logs without exposing addresses.
func recipientDomains(recipients []string) string {
	seen := make(map[string]struct{}, len(recipients))
	domains := make([]string, 0, len(recipients))
	for _, r := range recipients {
		at := strings.LastIndex(r, "@")
		if at < 0 {
			continue
		}
		d := strings.ToLower(r[at+1:])
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return strings.Join(domains, ",")
}
