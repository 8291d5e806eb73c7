package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	randv2 "math/rand/v2"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"time"

	"reqfail/internal/platform/logger"
	"reqfail/pkg/failure"
	"reqfail/pkg/retry"
)

// Client issues HTTP requests and is the boundary where transport errors
// become request failures: every error it returns that belongs to a
// failure category is a *failure.Error, so errors.Is against
// failure.ErrTimeout, failure.ErrConnection, failure.ErrProtocol and
// failure.ErrAny works on it.
type Client struct {
	hc               *stdhttp.Client
	log              *slog.Logger
	timeout          time.Duration
	retries          int
	baseBackoff      time.Duration
	maxBackoff       time.Duration
	headers          map[string]string
	urlRedactor      func(*url.URL) string
	retryMethods     map[string]struct{}
	retryable        retry.IsRetryableFunc
	maxRetryDuration time.Duration
	retryNonIdem     bool
	maxReplayBody    int64
	maxResponseBody  int64
}

// ErrReplayBodyTooLarge indicates request body exceeds replay limit.
var ErrReplayBodyTooLarge = errors.New("http: body too large for replay")

// StatusError reports a retryable status that was still returned after the
// last attempt.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// New creates configured Client.
func New(opts ...Option) *Client {
	tr := stdhttp.DefaultTransport.(*stdhttp.Transport).Clone()
	tr.MaxIdleConnsPerHost = 16
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second

	c := &Client{
		hc:              &stdhttp.Client{Transport: tr},
		log:             slog.Default(),
		timeout:         15 * time.Second,
		baseBackoff:     200 * time.Millisecond,
		headers:         map[string]string{"Accept-Encoding": "gzip"},
		retryable:       retry.DefaultRetryable,
		maxReplayBody:   1 << 20,
		maxResponseBody: 10 << 20,
		retryMethods: map[string]struct{}{
			stdhttp.MethodGet:     {},
			stdhttp.MethodHead:    {},
			stdhttp.MethodOptions: {},
			stdhttp.MethodTrace:   {},
			stdhttp.MethodPut:     {},
			stdhttp.MethodDelete:  {},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get fetches rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*stdhttp.Response, error) {
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Do sends req with logging and retries. Timeout and Connection failures
// are retried by default, as are 408, 421, 425, 429 and 5xx responses.
func (c *Client) Do(ctx context.Context, req *stdhttp.Request) (*stdhttp.Response, error) {
	if err := c.bufferBody(req); err != nil {
		return nil, err
	}

	retries := c.retries
	if !c.mayRetry(req) {
		retries = 0
	}

	var lastErr error
	start := time.Now()
	for attempt := 1; attempt <= retries+1; attempt++ {
		r, err := c.prepare(ctx, req)
		if err != nil {
			return nil, err
		}
		u := c.redactURL(r.URL)

		st := time.Now()
		resp, err := c.send(ctx, r)
		dur := time.Since(st)

		delay, again := c.shouldRetry(resp, err)
		if resp != nil && resp.StatusCode == stdhttp.StatusMisdirectedRequest {
			c.hc.CloseIdleConnections()
		}
		if !again || attempt > retries {
			if err != nil {
				c.log.Warn("http request failed", slog.String("method", r.Method), slog.String("url", u), slog.Int("attempt", attempt), logger.Failure(err))
				return nil, err
			}
			if again {
				drainAndClose(resp.Body)
				return nil, &StatusError{Method: r.Method, URL: u, Code: resp.StatusCode}
			}
			c.log.Info("http request", slog.String("method", r.Method), slog.String("url", u), slog.Int("status", resp.StatusCode), slog.Duration("dur", dur), slog.Int("attempt", attempt))
			return resp, nil
		}

		wait, truncated := c.backoff(ctx, attempt, delay)
		if err != nil {
			lastErr = err
			c.log.Warn("http request failed, retrying", slog.String("method", r.Method), slog.String("url", u), slog.Int("attempt", attempt), slog.Int("attempts_left", retries-attempt), slog.Duration("wait", wait), logger.Failure(err))
		} else {
			drainAndClose(resp.Body)
			lastErr = &StatusError{Method: r.Method, URL: u, Code: resp.StatusCode}
			c.log.Warn("http request status, retrying", slog.String("method", r.Method), slog.String("url", u), slog.Int("attempt", attempt), slog.Int("attempts_left", retries-attempt), slog.Duration("wait", wait), slog.Duration("retry_after", delay), slog.Int("status", resp.StatusCode))
		}

		if c.maxRetryDuration > 0 && time.Since(start)+wait > c.maxRetryDuration {
			return nil, fmt.Errorf("retry budget exceeded: %w", lastErr)
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, failure.Wrap(err)
		}
		if truncated {
			return nil, failure.Wrap(context.DeadlineExceeded)
		}
	}
	return nil, lastErr
}

// send performs one attempt. Its error is already classified.
func (c *Client) send(ctx context.Context, r *stdhttp.Request) (*stdhttp.Response, error) {
	if c.timeout <= 0 {
		resp, err := c.hc.Do(r)
		return resp, c.classify(ctx, err)
	}
	actx, cancel := context.WithTimeout(r.Context(), c.timeout)
	resp, err := c.hc.Do(r.WithContext(actx))
	if err != nil {
		cancel()
		return nil, c.classify(ctx, err)
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// classify wraps transport errors, except cancellation by the caller.
func (c *Client) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return failure.Wrap(err)
}

func (c *Client) shouldRetry(resp *stdhttp.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, c.retryable(err)
	}
	switch resp.StatusCode {
	case stdhttp.StatusRequestTimeout, stdhttp.StatusMisdirectedRequest, stdhttp.StatusTooEarly:
		return 0, true
	case stdhttp.StatusTooManyRequests:
		return retryAfter(resp.Header.Get("Retry-After")), true
	}
	if resp.StatusCode >= 500 {
		return retryAfter(resp.Header.Get("Retry-After")), true
	}
	return 0, false
}

// backoff returns the wait before the next attempt and whether it had to
// be cut short to fit the context deadline.
func (c *Client) backoff(ctx context.Context, attempt int, delay time.Duration) (time.Duration, bool) {
	wait := c.baseBackoff * time.Duration(1<<uint(attempt-1))
	if delay > 0 {
		wait = delay
	} else if wait > 0 {
		wait += time.Duration(randv2.Int64N(int64(wait)))
	}
	if c.maxBackoff > 0 && wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	if deadline, ok := ctx.Deadline(); ok && wait > 0 {
		if rem := time.Until(deadline); wait > rem {
			return max(rem, 0), true
		}
	}
	return wait, false
}

func (c *Client) mayRetry(req *stdhttp.Request) bool {
	if _, ok := c.retryMethods[req.Method]; ok {
		return true
	}
	if req.Method == stdhttp.MethodPost && req.Header.Get("Idempotency-Key") != "" {
		return true
	}
	return c.retryNonIdem
}

// bufferBody makes the request body replayable.
func (c *Client) bufferBody(req *stdhttp.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	defer req.Body.Close()

	var src io.Reader = req.Body
	if c.maxReplayBody > 0 {
		src = io.LimitReader(req.Body, c.maxReplayBody+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	if c.maxReplayBody > 0 && int64(len(body)) > c.maxReplayBody {
		return ErrReplayBodyTooLarge
	}
	req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
	req.Body, _ = req.GetBody()
	return nil
}

func (c *Client) prepare(ctx context.Context, req *stdhttp.Request) (*stdhttp.Request, error) {
	r := req.Clone(ctx)
	for k, v := range c.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	if r.GetBody != nil {
		rc, err := r.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = rc
	}
	return r, nil
}

func (c *Client) redactURL(u *url.URL) string {
	if c.urlRedactor != nil {
		return c.urlRedactor(u)
	}
	return u.Redacted()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfter parses Retry-After header value.
func retryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if t, err := stdhttp.ParseTime(h); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

// drainAndClose drains up to 512KB from body and closes it.
func drainAndClose(b io.ReadCloser) {
	if b == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, b, 512<<10)
	_ = b.Close()
}

// cancelBody releases the attempt's timeout once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
