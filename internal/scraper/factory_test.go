package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantType interface{}
		wantOK   bool
	}{
		{
			name:     "amazon url",
			url:      "https://www.amazon.com/dp/B0863TXGM3",
			wantType: &AmazonStrategy{},
			wantOK:   true,
		},
		{
			name:     "amazon url uppercase host",
			url:      "https://WWW.AMAZON.COM/dp/B0863TXGM3",
			wantType: &AmazonStrategy{},
			wantOK:   true,
		},
		{
			name:     "bestbuy url",
			url:      "https://www.bestbuy.com/site/sony-headphones/6505727.p",
			wantType: &BestBuyStrategy{},
			wantOK:   true,
		},
		{
			name:   "unsupported site",
			url:    "https://www.walmart.com/ip/12345",
			wantOK: false,
		},
		{
			name:   "empty url",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, ok := StrategyFor(tt.url)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.IsType(t, tt.wantType, strategy)
			} else {
				assert.Nil(t, strategy)
			}
		})
	}
}

func TestSiteName(t *testing.T) {
	assert.Equal(t, "Amazon", SiteName("https://www.amazon.com/dp/B0863TXGM3"))
	assert.Equal(t, "Best Buy", SiteName("https://www.bestbuy.com/site/6505727.p"))
	assert.Equal(t, UnknownSite, SiteName("https://www.target.com/p/12345"))
}
