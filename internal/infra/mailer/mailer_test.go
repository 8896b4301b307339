package mailer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"feedmail/internal/observability/logging"
	"feedmail/internal/resilience/retry"
)

// fakeSender records messages and fails the first failures calls.
type fakeSender struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	sent     []*mail.Msg
}

func (f *fakeSender) Send(_ context.Context, msg *mail.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures < 0 || f.calls <= f.failures {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig("sender@example.com")
	cfg.Retry = retry.Config{MaxAttempts: 3, Delay: time.Millisecond}
	cfg.RatePerSecond = 0
	return cfg
}

func testMessage() Message {
	return Message{
		Recipients: []string{"a@example.com", "b@example.org"},
		Subject:    "博客更新通知 - Hello",
		HTML:       `<html><body><h1>Hello</h1><p>World <a href="https://example.com/x">read</a></p></body></html>`,
	}
}

func TestMailer_Deliver_Success(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, testConfig(), nil)

	ok := m.Deliver(context.Background(), testMessage())

	require.True(t, ok)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.org"}, rcpts)
	assert.Equal(t, []string{"博客更新通知 - Hello"}, msg.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/plain")
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "multipart/alternative")
}

func TestMailer_Deliver_BccMode(t *testing.T) {
	sender := &fakeSender{}
	cfg := testConfig()
	cfg.Mode = RecipientsBcc
	m := New(sender, cfg, nil)

	require.True(t, m.Deliver(context.Background(), testMessage()))

	msg := sender.sent[0]
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Contains(t, rcpts, "a@example.com")
	assert.Contains(t, rcpts, "b@example.org")

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "a@example.com", "bcc recipients must not appear in headers")
}

func TestMailer_Deliver_RetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2, err: errors.New("421 try again later")}
	m := New(sender, testConfig(), nil)

	ok := m.Deliver(context.Background(), testMessage())

	assert.True(t, ok)
	assert.Equal(t, 3, sender.calls)
}

func TestMailer_Deliver_Exhausted(t *testing.T) {
	sender := &fakeSender{failures: -1, err: errors.New("535 authentication failed")}
	m := New(sender, testConfig(), nil)

	ok := m.Deliver(context.Background(), testMessage())

	assert.False(t, ok)
	assert.Equal(t, 3, sender.calls)
}

func TestMailer_Deliver_NoRecipients(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, testConfig(), nil)

	msg := testMessage()
	msg.Recipients = nil

	assert.False(t, m.Deliver(context.Background(), msg))
	assert.Equal(t, 0, sender.calls, "server must not be contacted")
}

func TestMailer_Deliver_InvalidRecipient(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, testConfig(), nil)

	msg := testMessage()
	msg.Recipients = []string{"not an address"}

	assert.False(t, m.Deliver(context.Background(), msg))
	assert.Equal(t, 0, sender.calls)
}

func TestMailer_Deliver_SkipsMalformedRecipients(t *testing.T) {
	for _, mode := range []RecipientMode{RecipientsTo, RecipientsBcc} {
		t.Run(string(mode), func(t *testing.T) {
			sender := &fakeSender{}
			cfg := testConfig()
			cfg.Mode = mode
			var logs bytes.Buffer
			m := New(sender, cfg, logging.New(logging.Options{Writer: &logs}))

			msg := testMessage()
			msg.Recipients = []string{"alice@example.com", "bob@example.org", "carol at example dot com"}

			require.True(t, m.Deliver(context.Background(), msg))
			require.Equal(t, 1, sender.calls)

			rcpts, err := sender.sent[0].GetRecipients()
			require.NoError(t, err)
			assert.Contains(t, rcpts, "alice@example.com")
			assert.Contains(t, rcpts, "bob@example.org")
			assert.NotContains(t, rcpts, "carol at example dot com")
			assert.Contains(t, logs.String(), "skipping malformed recipient address")
		})
	}
}

func TestMailer_Deliver_BreakerOpens(t *testing.T) {
	sender := &fakeSender{failures: -1, err: errors.New("dial tcp: connection refused")}
	cfg := testConfig()
	cfg.BreakerThreshold = 2
	m := New(sender, cfg, nil)

	assert.False(t, m.Deliver(context.Background(), testMessage()))
	assert.Equal(t, 2, sender.calls, "third attempt should be rejected by the open breaker")

	assert.False(t, m.Deliver(context.Background(), testMessage()))
	assert.Equal(t, 2, sender.calls, "later messages fail fast")
}

func TestMailer_Deliver_BreakerDisabled(t *testing.T) {
	sender := &fakeSender{failures: -1, err: errors.New("dial tcp: connection refused")}
	cfg := testConfig()
	cfg.BreakerThreshold = 0
	m := New(sender, cfg, nil)

	m.Deliver(context.Background(), testMessage())
	m.Deliver(context.Background(), testMessage())

	assert.Equal(t, 6, sender.calls)
}

func TestMailer_Deliver_CanceledContext(t *testing.T) {
	sender := &fakeSender{}
	cfg := testConfig()
	cfg.RatePerSecond = 0.001
	m := New(sender, cfg, nil)

	// consume the single burst token
	require.True(t, m.Deliver(context.Background(), testMessage()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, m.Deliver(ctx, testMessage()))
	assert.Equal(t, 1, sender.calls)
}

func TestParseRecipientMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RecipientMode
		wantErr bool
	}{
		{in: "", want: RecipientsTo},
		{in: "to", want: RecipientsTo},
		{in: " BCC ", want: RecipientsBcc},
		{in: "cc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRecipientMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><style>p{color:red}</style><title>x</title></head>
<body><h1>Title</h1><p>First   line<br>second line</p><script>alert(1)</script>
<p><a href="https://example.com/a?x=1&amp;y=2">Read more</a></p></body></html>`

	got := htmlToText(html)

	assert.Equal(t, "Title\nFirst line\nsecond line\nRead more (https://example.com/a?x=1&y=2)", got)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(0, 1)

	assert.Nil(t, limiter)
	assert.NoError(t, limiter.Allow(context.Background()))
}

func TestRecipientDomains(t *testing.T) {
	got := recipientDomains([]string{"a@Example.com", "b@example.com", "c@example.org", "broken"})

	assert.Equal(t, "example.com,example.org", got)
}
