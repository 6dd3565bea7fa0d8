package scraper

import "strings"

// UnknownSite is reported for URLs no strategy is registered for.
const UnknownSite = "Unknown"

type registration struct {
	host     string
	site     string
	strategy Strategy
}

// registry maps URL host substrings to site strategies. Adding a site means
// adding one entry here.
var registry = []registration{
	{host: "amazon.com", site: "Amazon", strategy: NewAmazonStrategy()},
	{host: "bestbuy.com", site: "Best Buy", strategy: NewBestBuyStrategy()},
}

// StrategyFor resolves the extraction strategy for url by substring match.
// ok=false means the URL is unsupported and should be skipped, not failed.
func StrategyFor(url string) (Strategy, bool) {
	lower := strings.ToLower(url)
	for _, reg := range registry {
		if strings.Contains(lower, reg.host) {
			return reg.strategy, true
		}
	}
	return nil, false
}

// SiteName returns the display name of the site behind url, or UnknownSite.
func SiteName(url string) string {
	lower := strings.ToLower(url)
	for _, reg := range registry {
		if strings.Contains(lower, reg.host) {
			return reg.site
		}
	}
	return UnknownSite
}
