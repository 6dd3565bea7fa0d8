package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FailureReason classifies why a fetch ultimately gave up.
type FailureReason string

const (
	ReasonTimeout    FailureReason = "timeout"
	ReasonConnection FailureReason = "connection"
	ReasonHTTPStatus FailureReason = "http_status"
	ReasonBadBody    FailureReason = "bad_body"
)

// FetchError reports a terminal per-URL fetch failure. It is recoverable from
// the caller's point of view: the URL is skipped for this cycle, nothing more.
type FetchError struct {
	URL        string
	Attempts   int
	Reason     FailureReason
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Reason == ReasonHTTPStatus {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): HTTP %d", e.URL, e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %s: %v", e.URL, e.Attempts, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves a product page as a parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
	Close() error
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// browserHeaders are sent with every request alongside a rotated User-Agent.
// Accept-Encoding is left to the transport so gzip is decoded automatically.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Config configures a Client.
type Config struct {
	Timeout    time.Duration
	Policy     RetryPolicy
	UserAgents []string
	Logger     *slog.Logger
	Sleep      SleepFunc
}

// Client fetches pages over plain HTTP with retry and header rotation.
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	userAgents []string
	logger     *slog.Logger
	sleep      SleepFunc
}

func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepWithContext
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     cfg.Policy,
		userAgents: cfg.UserAgents,
		logger:     cfg.Logger.With("component", "fetcher"),
		sleep:      cfg.Sleep,
	}, nil
}

// Fetch retrieves url and parses it. Each attempt waits a randomized
// politeness delay, sends browser-like headers with a rotated User-Agent and
// is bounded by the configured timeout. Non-2xx responses and network errors
// are retried up to the policy's attempt budget; the terminal failure is
// returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr *FetchError

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.policy.requestDelay()); err != nil {
			return nil, err
		}

		c.logger.Info("fetching page", "url", url, "attempt", attempt, "max_attempts", c.policy.MaxAttempts)

		doc, ferr := c.attempt(ctx, url)
		if ferr == nil {
			c.logger.Info("fetched page", "url", url, "attempt", attempt)
			return doc, nil
		}

		ferr.Attempts = attempt
		lastErr = ferr
		c.logger.Warn("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"reason", string(ferr.Reason),
			"error", ferr.Err)

		if attempt < c.policy.MaxAttempts {
			if err := c.sleep(ctx, c.policy.retryDelay()); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Error("giving up on page", "url", url, "attempts", lastErr.Attempts, "reason", string(lastErr.Reason))
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, url string) (*goquery.Document, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: ReasonConnection, Err: err}
	}

	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", c.userAgents[rand.Intn(len(c.userAgents))])

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: classifyNetError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, Reason: ReasonHTTPStatus, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: ReasonBadBody, Err: err}
	}

	return doc, nil
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func classifyNetError(err error) FailureReason {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonConnection
}
