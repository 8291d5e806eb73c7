package httpclient

import (
	"log/slog"
	stdhttp "net/http"
	"net/url"
	"time"

	"reqfail/pkg/failure"
	"reqfail/pkg/retry"
)

// Option configures Client.
type Option func(*Client)

// WithTimeout bounds each attempt, from dialing until the body is closed.
// An attempt that runs out fails with a Timeout failure.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) { c.timeout = t }
}

// WithLogger sets logger used by client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetries enables n retries with exponential backoff and jitter.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		if backoff > 0 {
			c.baseBackoff = backoff
		}
	}
}

// WithMaxBackoff limits exponential backoff growth.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) { c.maxBackoff = d }
}

// WithRetryOn replaces the failure categories that are retried. By
// default Timeout and Connection failures are.
func WithRetryOn(markers ...*failure.Marker) Option {
	return func(c *Client) { c.retryable = retry.On(markers...) }
}

// WithHeaders adds default headers to each request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithoutHeaders removes default headers.
func WithoutHeaders(keys ...string) Option {
	return func(c *Client) {
		for _, k := range keys {
			delete(c.headers, k)
		}
	}
}

// WithURLRedactor sets URL redactor for logs.
func WithURLRedactor(f func(*url.URL) string) Option {
	return func(c *Client) { c.urlRedactor = f }
}

// WithTransport sets custom transport.
func WithTransport(rt stdhttp.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.hc.Transport = rt
		}
	}
}

// WithRetryMethods adds methods allowed for retries.
func WithRetryMethods(methods ...string) Option {
	return func(c *Client) {
		for _, m := range methods {
			c.retryMethods[m] = struct{}{}
		}
	}
}

// WithMaxRetryDuration limits total time spent on retries.
func WithMaxRetryDuration(d time.Duration) Option {
	return func(c *Client) { c.maxRetryDuration = d }
}

// WithRetryNonIdempotent allows retries for non-idempotent methods like POST.
func WithRetryNonIdempotent(v bool) Option {
	return func(c *Client) { c.retryNonIdem = v }
}

// WithMaxReplayBodySize limits size of buffered body for retries (0 disables limit).
func WithMaxReplayBodySize(n int64) Option {
	return func(c *Client) { c.maxReplayBody = n }
}

// WithMaxResponseBody limits how much ReadBody accepts (0 disables limit).
func WithMaxResponseBody(n int64) Option {
	return func(c *Client) { c.maxResponseBody = n }
}
