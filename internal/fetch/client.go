package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxBody caps how much of a response is read; a full chapter of text with
// translation is well under this.
const maxBody = 8 << 20

// Options configures a Client.
type Options struct {
	Timeout    time.Duration // per-request timeout; 30s when zero
	Delay      time.Duration // pause after every network call
	MaxRetries int           // retries for transient failures; negative disables
	HTTPClient *http.Client  // overrides Timeout when set
	Stats      *Stats        // shared latency stats; a private one when nil
}

// Client performs sequential, rate-limited JSON GET requests against one
// external service.
type Client struct {
	service    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
	stats      *Stats
	log        *slog.Logger
}

func NewClient(service string, opts Options, log *slog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	stats := opts.Stats
	if stats == nil {
		stats = NewStats()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		service:    service,
		httpClient: hc,
		delay:      opts.Delay,
		maxRetries: retries,
		stats:      stats,
		log:        log.With("service", service),
	}
}

// Service returns the name used in errors and logs.
func (c *Client) Service() string { return c.service }

// Stats returns the latency tracker for this client.
func (c *Client) Stats() *Stats { return c.stats }

// GetJSON fetches url and decodes the body into v, retrying transient
// failures with backoff.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := Backoff(attempt - 1)
			c.log.Warn("retrying fetch", "url", url, "attempt", attempt, "wait", wait, "error", lastErr)
			if err := sleep(ctx, wait); err != nil {
				return &Error{Service: c.service, URL: url, Err: err}
			}
		}
		lastErr = c.getOnce(ctx, url, v)
		if lastErr == nil || !IsRetryable(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) getOnce(ctx context.Context, url string, v any) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Service: c.service, URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	defer func() {
		c.stats.Record(time.Since(start), err != nil)
		// The pause follows every network call, failed or not.
		if perr := sleep(ctx, c.delay); perr != nil && err == nil {
			err = &Error{Service: c.service, URL: url, Err: perr}
		}
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Service: c.service, URL: url, Err: err, Temporary: ctx.Err() == nil}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &Error{Service: c.service, URL: url, StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &Error{Service: c.service, URL: url, Err: fmt.Errorf("read response: %w", err), Temporary: ctx.Err() == nil}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Service: c.service, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
