// Package httpclient provides the HTTP transport shared by every remote read in feedmail.
package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the per-request timeout for remote resources.
const DefaultTimeout = 10 * time.Second

const userAgent = "feedmail/1.0 (+https://github.com/feedmail)"

// Response is the subset of an HTTP response the callers inspect.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client issues GET requests. Implementations must honour ctx cancellation.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// RestyClient implements Client on top of go-resty.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client with the given per-request timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &RestyClient{client: c}
}

// Get performs a GET request. Non-2xx responses are returned without error; the
// caller decides what a status means.
func (c *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
