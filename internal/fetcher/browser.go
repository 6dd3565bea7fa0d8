package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

// BrowserOptions configures the headless browser fetcher.
type BrowserOptions struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	Locale         string
}

func DefaultBrowserOptions() *BrowserOptions {
	return &BrowserOptions{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      defaultUserAgents[0],
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-US,en;q=0.9",
		Locale:         "en-US",
	}
}

// BrowserFetcher renders pages in headless Chromium before parsing. It is the
// fallback for listings that only populate prices through JavaScript; the
// plain Client stays the default.
type BrowserFetcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	timeout time.Duration
	logger  *slog.Logger
}

func NewBrowserFetcher(opts *BrowserOptions, logger *slog.Logger) (*BrowserFetcher, error) {
	if opts == nil {
		opts = DefaultBrowserOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: &opts.UserAgent,
		Locale:    &opts.Locale,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": opts.AcceptLanguage,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &BrowserFetcher{
		pw:      pw,
		browser: browser,
		context: browserCtx,
		timeout: opts.Timeout,
		logger:  logger.With("component", "browser_fetcher"),
	}, nil
}

// Fetch navigates to url in a fresh page and parses the rendered DOM.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := b.context.NewPage()
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: 1, Reason: ReasonConnection, Err: err}
	}
	defer page.Close()

	b.logger.Info("rendering page", "url", url)

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(b.timeout.Milliseconds())),
	})
	if err != nil {
		reason := ReasonConnection
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			reason = ReasonTimeout
		}
		return nil, &FetchError{URL: url, Attempts: 1, Reason: reason, Err: err}
	}

	if resp != nil && (resp.Status() < 200 || resp.Status() > 299) {
		return nil, &FetchError{URL: url, Attempts: 1, Reason: ReasonHTTPStatus, StatusCode: resp.Status()}
	}

	html, err := page.Content()
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: 1, Reason: ReasonBadBody, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: url, Attempts: 1, Reason: ReasonBadBody, Err: err}
	}

	return doc, nil
}

func (b *BrowserFetcher) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
