package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/wneessen/go-mail"
)

// RecipientMode selects the header that carries subscriber addresses.
type RecipientMode string

const (
	// RecipientsTo lists every subscriber in the To header.
	RecipientsTo RecipientMode = "to"
	// RecipientsBcc hides subscribers from each other; To carries the sender.
	RecipientsBcc RecipientMode = "bcc"
)

// ParseRecipientMode parses "to" or "bcc" (case-insensitive). Empty means RecipientsTo.
func ParseRecipientMode(s string) (RecipientMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RecipientsTo):
		return RecipientsTo, nil
	case string(RecipientsBcc):
		return RecipientsBcc, nil
	default:
		return "", fmt.Errorf("unknown recipient mode %q (want to or bcc)", s)
	}
}

// Message is one notification email.
type Message struct {
	Recipients []string
	Subject    string
	HTML       string
}

// compose builds the MIME message: a text/plain part derived from the HTML and
// the HTML itself as the alternative. Recipients that do not parse are left out
// and returned in skipped; if none remain, the error wraps ErrNoRecipients.
func compose(from string, mode RecipientMode, m Message) (msg *mail.Msg, skipped []string, err error) {
	msg = mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, nil, fmt.Errorf("invalid sender: %w", err)
	}

	add := msg.AddTo
	if mode == RecipientsBcc {
		if err := msg.To(from); err != nil {
			return nil, nil, fmt.Errorf("invalid sender: %w", err)
		}
		add = msg.AddBcc
	}

	accepted := 0
	for _, rcpt := range m.Recipients {
		if err := add(rcpt); err != nil {
			skipped = append(skipped, rcpt)
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return nil, skipped, fmt.Errorf("%w: all %d addresses are malformed", ErrNoRecipients, len(m.Recipients))
	}

	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, htmlToText(m.HTML))
	msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	return msg, skipped, nil
}

// htmlToText extracts readable text from an HTML document, one non-empty line per
// block. Unparseable input is returned unchanged.
func htmlToText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if href != "" && href != text && !strings.HasPrefix(href, "#") {
			s.AppendHtml(" (" + html.EscapeString(href) + ")")
		}
	})

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
