package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestAmazonStrategy_ExtractPrice(t *testing.T) {
	strategy := NewAmazonStrategy()

	tests := []struct {
		name      string
		html      string
		wantPrice string
		wantOK    bool
	}{
		{
			name:      "price whole selector",
			html:      `<span class="a-price-whole">399</span>`,
			wantPrice: "399",
			wantOK:    true,
		},
		{
			name:      "offscreen price with currency symbol",
			html:      `<span class="a-offscreen">$1,299.99</span>`,
			wantPrice: "1299.99",
			wantOK:    true,
		},
		{
			name:      "legacy price block",
			html:      `<span id="priceblock_ourprice">$49.95</span>`,
			wantPrice: "49.95",
			wantOK:    true,
		},
		{
			name:      "deal price",
			html:      `<span id="priceblock_dealprice">$25.00</span>`,
			wantPrice: "25",
			wantOK:    true,
		},
		{
			name:      "first selector wins over later ones",
			html:      `<span class="a-price-whole">100</span><span class="a-offscreen">$200.00</span>`,
			wantPrice: "100",
			wantOK:    true,
		},
		{
			name:      "non-numeric text falls through to next selector",
			html:      `<span class="a-price-whole">See options</span><span class="a-offscreen">$59.99</span>`,
			wantPrice: "59.99",
			wantOK:    true,
		},
		{
			name:   "no price selectors present",
			html:   `<div id="productTitle">Some Product</div>`,
			wantOK: false,
		},
		{
			name:   "empty page",
			html:   ``,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParseHTML(t, tt.html)
			price, ok := strategy.ExtractPrice(doc)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPrice, price.String())
			}
		})
	}
}

func TestAmazonStrategy_ExtractTitle(t *testing.T) {
	strategy := NewAmazonStrategy()

	tests := []struct {
		name      string
		html      string
		wantTitle string
		wantOK    bool
	}{
		{
			name:      "product title id",
			html:      `<span id="productTitle">  Sony WH-1000XM5 Headphones  </span>`,
			wantTitle: "Sony WH-1000XM5 Headphones",
			wantOK:    true,
		},
		{
			name:      "word break heading",
			html:      `<h1 class="product-title-word-break">Kindle Paperwhite</h1>`,
			wantTitle: "Kindle Paperwhite",
			wantOK:    true,
		},
		{
			name:   "missing title",
			html:   `<span class="a-offscreen">$10.00</span>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParseHTML(t, tt.html)
			title, ok := strategy.ExtractTitle(doc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}

func TestAmazonStrategy_ExtractAvailability(t *testing.T) {
	strategy := NewAmazonStrategy()

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "in stock",
			html: `<div id="availability"><span>In Stock</span></div>`,
			want: true,
		},
		{
			name: "out of stock",
			html: `<div id="availability"><span>Currently out of stock.</span></div>`,
			want: false,
		},
		{
			name: "unavailable",
			html: `<div id="availability"><span>Currently unavailable.</span></div>`,
			want: false,
		},
		{
			name: "no availability block defaults to available",
			html: `<span class="a-price-whole">399</span>`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParseHTML(t, tt.html)
			assert.Equal(t, tt.want, strategy.ExtractAvailability(doc))
		})
	}
}
