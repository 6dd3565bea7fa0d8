package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docFetcher serves canned documents keyed by URL.
type docFetcher struct {
	docs map[string]string
	err  error
}

func (f *docFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	html, ok := f.docs[url]
	if !ok {
		return nil, errors.New("unexpected url: " + url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *docFetcher) Close() error { return nil }

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "plain number", input: "399.99", want: "399.99", wantOK: true},
		{name: "dollar sign", input: "$399.99", want: "399.99", wantOK: true},
		{name: "thousands separator", input: "$1,299.99", want: "1299.99", wantOK: true},
		{name: "integer price", input: "399", want: "399", wantOK: true},
		{name: "surrounding whitespace", input: "  $49.95  ", want: "49.95", wantOK: true},
		{name: "price embedded in text", input: "Now: $25.00 (was $30.00)", want: "25", wantOK: true},
		{name: "no digits", input: "See price in cart", wantOK: false},
		{name: "empty string", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := parsePrice(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, price.String())
			}
		})
	}
}

func TestScrapeProduct(t *testing.T) {
	const url = "https://www.amazon.com/dp/B0863TXGM3"

	t.Run("full product page", func(t *testing.T) {
		f := &docFetcher{docs: map[string]string{
			url: `<span id="productTitle">Sony WH-1000XM4</span>
				<span class="a-price-whole">348</span>
				<div id="availability"><span>In Stock</span></div>`,
		}}

		res, err := New(f, NewAmazonStrategy(), nil).ScrapeProduct(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, "348", res.Price.String())
		assert.Equal(t, "Sony WH-1000XM4", res.Title)
		assert.Equal(t, url, res.URL)
		assert.True(t, res.Available)
		assert.False(t, res.ScrapedAt.IsZero())
	})

	t.Run("missing title gets placeholder", func(t *testing.T) {
		f := &docFetcher{docs: map[string]string{
			url: `<span class="a-price-whole">348</span>`,
		}}

		res, err := New(f, NewAmazonStrategy(), nil).ScrapeProduct(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, UnknownProductTitle, res.Title)
	})

	t.Run("no price is ErrPriceNotFound", func(t *testing.T) {
		f := &docFetcher{docs: map[string]string{
			url: `<span id="productTitle">Sony WH-1000XM4</span>`,
		}}

		res, err := New(f, NewAmazonStrategy(), nil).ScrapeProduct(context.Background(), url)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPriceNotFound)
		assert.Nil(t, res)
	})

	t.Run("fetch error is passed through", func(t *testing.T) {
		fetchErr := errors.New("connection refused")
		f := &docFetcher{err: fetchErr}

		res, err := New(f, NewAmazonStrategy(), nil).ScrapeProduct(context.Background(), url)
		require.Error(t, err)
		assert.ErrorIs(t, err, fetchErr)
		assert.Nil(t, res)
	})

	t.Run("out of stock page still yields result", func(t *testing.T) {
		f := &docFetcher{docs: map[string]string{
			url: `<span id="productTitle">Sony WH-1000XM4</span>
				<span class="a-price-whole">348</span>
				<div id="availability"><span>Currently out of stock.</span></div>`,
		}}

		res, err := New(f, NewAmazonStrategy(), nil).ScrapeProduct(context.Background(), url)
		require.NoError(t, err)
		assert.False(t, res.Available)
	})
}
