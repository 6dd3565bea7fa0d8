package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/maltedev/price-tracker/internal/fetcher"
)

var (
	// ErrPriceNotFound means the page loaded but none of the strategy's
	// selectors yielded a parseable price. To callers this is the same
	// skip-this-URL outcome as a fetch failure.
	ErrPriceNotFound = errors.New("no price found on page")
)

// UnknownProductTitle is substituted when a page yields a price but no title.
const UnknownProductTitle = "Unknown Product"

// Strategy extracts product data from a parsed page. Implementations are
// stateless and site-specific; only the selector sets differ between sites.
type Strategy interface {
	// ExtractPrice walks the site's price selectors in order and returns
	// the first value that parses as a non-negative number. ok=false is an
	// expected outcome when the site's markup has drifted.
	ExtractPrice(doc *goquery.Document) (decimal.Decimal, bool)

	// ExtractTitle returns the product title, ok=false if absent.
	ExtractTitle(doc *goquery.Document) (string, bool)

	// ExtractAvailability reports whether the product appears purchasable.
	// Absent an explicit out-of-stock marker the answer is true.
	ExtractAvailability(doc *goquery.Document) bool
}

// Result is the outcome of one successful scrape.
type Result struct {
	Price     decimal.Decimal
	Title     string
	URL       string
	Available bool
	ScrapedAt time.Time
}

// Scraper pairs a fetcher with a site strategy. Retries live in the fetcher;
// extraction misses are reported as ErrPriceNotFound without a retry.
type Scraper struct {
	fetcher  fetcher.Fetcher
	strategy Strategy
	logger   *slog.Logger
	now      func() time.Time
}

func New(f fetcher.Fetcher, s Strategy, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		fetcher:  f,
		strategy: s,
		logger:   logger.With("component", "scraper"),
		now:      time.Now,
	}
}

// ScrapeProduct fetches url and extracts price, title and availability.
func (s *Scraper) ScrapeProduct(ctx context.Context, url string) (*Result, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	price, ok := s.strategy.ExtractPrice(doc)
	if !ok {
		s.logger.Warn("could not extract price", "url", url)
		return nil, fmt.Errorf("%w: %s", ErrPriceNotFound, url)
	}

	title, ok := s.strategy.ExtractTitle(doc)
	if !ok || title == "" {
		title = UnknownProductTitle
	}

	result := &Result{
		Price:     price,
		Title:     title,
		URL:       url,
		Available: s.strategy.ExtractAvailability(doc),
		ScrapedAt: s.now(),
	}

	s.logger.Info("scraped product", "url", url, "title", title, "price", price.String())
	return result, nil
}

var priceValuePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parsePrice strips currency symbols and thousands separators and parses the
// first numeric run in text. ok=false when nothing numeric remains.
func parsePrice(text string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	match := priceValuePattern.FindString(cleaned)
	if match == "" {
		return decimal.Decimal{}, false
	}

	price, err := decimal.NewFromString(match)
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, false
	}
	return price, true
}

func firstText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}
