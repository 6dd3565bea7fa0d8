package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// BestBuyStrategy extracts product data from Best Buy listing pages.
type BestBuyStrategy struct{}

func NewBestBuyStrategy() *BestBuyStrategy {
	return &BestBuyStrategy{}
}

var bestBuyPriceSelectors = []string{
	"span.priceView-customer-price, div.priceView-customer-price",
	"span.priceView-hero-price, div.priceView-hero-price",
	`[data-testid="customer-price"]`,
	`span[aria-label*="price"], span[aria-label*="Price"]`,
}

var bestBuyTitleSelectors = []string{
	"h1.sku-title, span.sku-title",
	`[data-testid="sku-title"]`,
	"h1.heading-5, span.heading-5",
}

var soldOutPattern = regexp.MustCompile(`(?i)sold out`)

func (s *BestBuyStrategy) ExtractPrice(doc *goquery.Document) (decimal.Decimal, bool) {
	for _, selector := range bestBuyPriceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if price, ok := parsePrice(text); ok {
			return price, true
		}
	}

	// Structured data fallback.
	if content, exists := doc.Find(`meta[property="product:price:amount"]`).Attr("content"); exists {
		if price, ok := parsePrice(content); ok {
			return price, true
		}
	}

	return decimal.Decimal{}, false
}

func (s *BestBuyStrategy) ExtractTitle(doc *goquery.Document) (string, bool) {
	if title, ok := firstText(doc, bestBuyTitleSelectors); ok {
		return title, true
	}

	if content, exists := doc.Find(`meta[property="og:title"]`).Attr("content"); exists && content != "" {
		return content, true
	}

	return "", false
}

func (s *BestBuyStrategy) ExtractAvailability(doc *goquery.Document) bool {
	soldOut := false
	doc.Find("button, span").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if soldOutPattern.MatchString(sel.Text()) {
			soldOut = true
			return false
		}
		return true
	})
	if soldOut {
		return false
	}

	if href, exists := doc.Find(`link[itemprop="availability"]`).Attr("href"); exists {
		if strings.Contains(href, "OutOfStock") {
			return false
		}
	}

	return true
}
