package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// AmazonStrategy extracts product data from Amazon listing pages.
type AmazonStrategy struct{}

func NewAmazonStrategy() *AmazonStrategy {
	return &AmazonStrategy{}
}

var amazonPriceSelectors = []string{
	"span.a-price-whole",
	"span.a-offscreen",
	"span#priceblock_ourprice",
	"span#priceblock_dealprice",
	"span.priceToPay",
}

var amazonTitleSelectors = []string{
	"#productTitle",
	"h1.product-title-word-break",
	"span.product-title-word-break",
}

func (s *AmazonStrategy) ExtractPrice(doc *goquery.Document) (decimal.Decimal, bool) {
	for _, selector := range amazonPriceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if price, ok := parsePrice(text); ok {
			return price, true
		}
	}
	return decimal.Decimal{}, false
}

func (s *AmazonStrategy) ExtractTitle(doc *goquery.Document) (string, bool) {
	return firstText(doc, amazonTitleSelectors)
}

func (s *AmazonStrategy) ExtractAvailability(doc *goquery.Document) bool {
	text := strings.ToLower(doc.Find("div#availability").Text())
	if text == "" {
		return true
	}
	if strings.Contains(text, "out of stock") || strings.Contains(text, "unavailable") {
		return false
	}
	return true
}
