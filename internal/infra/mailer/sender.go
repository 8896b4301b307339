package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultDialTimeout bounds connecting to the SMTP server.
const DefaultDialTimeout = 10 * time.Second

// Sender transmits a composed message.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// UseTLS selects STARTTLS on a plaintext connection. When false the
	// connection uses implicit TLS from the first byte.
	UseTLS      bool
	DialTimeout time.Duration
}

// SMTPSender sends messages through go-mail. Each Send opens a fresh connection.
type SMTPSender struct {
	client *mail.Client
}

// NewSMTPSender builds an SMTPSender. The authentication mechanism is picked
// from the ones the server advertises.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	return newSMTPSender(cfg)
}

func newSMTPSender(cfg SMTPConfig, extra ...mail.Option) (*SMTPSender, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(timeout),
	}
	if cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(cfg.Host, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create SMTP client: %w", err)
	}
	return &SMTPSender{client: client}, nil
}

// Send dials the server, sends msg and closes the connection.
func (s *SMTPSender) Send(ctx context.Context, msg *mail.Msg) error {
	return s.client.DialAndSendWithContext(ctx, msg)
}
