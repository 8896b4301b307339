package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/feed"
	"feedmail/internal/infra/fetcher"
	"feedmail/internal/infra/httpclient"
)

const rssSevenItems = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item><title>Article 1</title><link>https://example.com/1</link><description>Description 1</description><pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate></item>
    <item><title>Article 2</title><link>https://example.com/2</link><pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate></item>
    <item><title>Article 3</title><link>https://example.com/3</link><description>Description 3</description></item>
    <item><title>Article 4</title><link>https://example.com/4</link><description>Description 4</description></item>
    <item><title>Article 5</title><link>https://example.com/5</link><description>Description 5</description></item>
    <item><title>Article 6</title><link>https://example.com/6</link><description>Description 6</description></item>
    <item><title>Article 7</title><link>https://example.com/7</link><description>Description 7</description></item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
  <updated>2024-01-02T00:00:00Z</updated>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/atom-1"/>
    <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
    <published>2024-01-02T00:00:00Z</published>
    <updated>2024-01-02T00:00:00Z</updated>
    <summary>Atom summary</summary>
  </entry>
</feed>`

func newParser() *feed.Parser {
	return feed.NewParser(fetcher.New(httpclient.NewRestyClient(time.Second)))
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParser_Parse_RSS(t *testing.T) {
	server := serve(t, http.StatusOK, rssSevenItems)

	got := newParser().Parse(context.Background(), server.URL, feed.DefaultMaxCount)

	if len(got) != 5 {
		t.Fatalf("len(articles) = %d, want 5", len(got))
	}

	want := []entity.Article{
		{Title: "Article 1", Link: "https://example.com/1", Published: "Mon, 01 Jan 2024 00:00:00 +0000", Summary: "Description 1"},
		{Title: "Article 2", Link: "https://example.com/2", Published: "Tue, 02 Jan 2024 00:00:00 +0000", Summary: "Article 2"},
	}
	if diff := cmp.Diff(want, got[:2]); diff != "" {
		t.Errorf("articles mismatch (-want +got):\n%s", diff)
	}
	if got[4].Link != "https://example.com/5" {
		t.Errorf("feed order not preserved: last link = %q", got[4].Link)
	}
}

func TestParser_Parse_MaxCount(t *testing.T) {
	server := serve(t, http.StatusOK, rssSevenItems)

	tests := []struct {
		maxCount int
		want     int
	}{
		{maxCount: 1, want: 1},
		{maxCount: 10, want: 7},
		{maxCount: 0, want: 0},
	}

	for _, tt := range tests {
		got := newParser().Parse(context.Background(), server.URL, tt.maxCount)
		if len(got) != tt.want {
			t.Errorf("Parse(maxCount=%d) returned %d articles, want %d", tt.maxCount, len(got), tt.want)
		}
	}
}

func TestParser_Parse_Atom(t *testing.T) {
	server := serve(t, http.StatusOK, atomFeed)

	got := newParser().Parse(context.Background(), server.URL, feed.DefaultMaxCount)

	if len(got) != 1 {
		t.Fatalf("len(articles) = %d, want 1", len(got))
	}
	if got[0].Link != "https://example.com/atom-1" {
		t.Errorf("Link = %q", got[0].Link)
	}
	if got[0].Summary != "Atom summary" {
		t.Errorf("Summary = %q, want %q", got[0].Summary, "Atom summary")
	}
}

func TestParser_Parse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http error", status: http.StatusInternalServerError, body: "boom"},
		{name: "malformed", status: http.StatusOK, body: "this is not a feed"},
		{name: "empty channel", status: http.StatusOK, body: `<rss version="2.0"><channel><title>x</title></channel></rss>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serve(t, tt.status, tt.body)

			got := newParser().Parse(context.Background(), server.URL, feed.DefaultMaxCount)

			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestParser_Fetch_MalformedError(t *testing.T) {
	server := serve(t, http.StatusOK, "this is not a feed")

	_, err := newParser().Fetch(context.Background(), server.URL, feed.DefaultMaxCount)

	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, feed.ErrMalformedFeed) {
		t.Errorf("expected ErrMalformedFeed, got %v", err)
	}
}
