package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maltedev/price-tracker/internal/config"
	"github.com/maltedev/price-tracker/internal/fetcher"
	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/notify"
	"github.com/maltedev/price-tracker/internal/scraper"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	RecordPrice(ctx context.Context, product, site string, price decimal.Decimal, title, url string, available bool) (bool, error)
	CheckDrop(ctx context.Context, product, site string, percentThreshold, amountThreshold decimal.Decimal) (*models.DropEvent, error)
}

// Thresholds configure when a price decrease qualifies as a drop. Either
// threshold alone qualifies.
type Thresholds struct {
	DropPercent decimal.Decimal
	DropAmount  decimal.Decimal
}

// CycleResult summarizes one product's pass through a tracking cycle.
type CycleResult struct {
	Product   string                     `json:"product"`
	Timestamp time.Time                  `json:"timestamp"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Alerts    []*models.DropEvent        `json:"alerts"`
}

// Tracker drives tracking cycles: dispatch, scrape, persist, detect drops,
// notify. Failures on one URL never abort the rest of the cycle; store
// failures do, since every later diff depends on a consistent store.
type Tracker struct {
	fetcher    fetcher.Fetcher
	store      Store
	notifier   notify.Notifier
	thresholds Thresholds
	logger     *slog.Logger
}

func New(f fetcher.Fetcher, store Store, notifier notify.Notifier, thresholds Thresholds, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		fetcher:    f,
		store:      store,
		notifier:   notifier,
		thresholds: thresholds,
		logger:     logger.With("component", "tracker"),
	}
}

// TrackProduct scrapes every configured site URL for one product. The
// returned error is non-nil only for store failures; scrape and dispatch
// failures are logged and skipped.
func (t *Tracker) TrackProduct(ctx context.Context, product config.Product) (*CycleResult, error) {
	t.logger.Info("tracking product", "product", product.Name)

	result := &CycleResult{
		Product:   product.Name,
		Timestamp: time.Now(),
		Prices:    make(map[string]decimal.Decimal),
	}

	for siteKey, url := range product.URLs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		strategy, ok := scraper.StrategyFor(url)
		if !ok {
			t.logger.Warn("no scraper registered for url", "product", product.Name, "site", siteKey, "url", url)
			continue
		}

		res, err := scraper.New(t.fetcher, strategy, t.logger).ScrapeProduct(ctx, url)
		if err != nil {
			t.logger.Warn("scrape failed, skipping",
				"product", product.Name, "site", siteKey, "url", url, "error", err)
			continue
		}

		site := scraper.SiteName(url)
		changed, err := t.store.RecordPrice(ctx, product.Name, site, res.Price, res.Title, url, res.Available)
		if err != nil {
			return result, fmt.Errorf("failed to record price for %s at %s: %w", product.Name, site, err)
		}
		result.Prices[site] = res.Price

		// An unchanged price cannot be a new drop.
		if changed {
			drop, err := t.store.CheckDrop(ctx, product.Name, site, t.thresholds.DropPercent, t.thresholds.DropAmount)
			if err != nil {
				return result, fmt.Errorf("failed to check drop for %s at %s: %w", product.Name, site, err)
			}
			if drop != nil {
				t.logger.Info("price drop detected",
					"product", product.Name,
					"site", site,
					"previous_price", drop.PreviousPrice.StringFixed(2),
					"current_price", drop.CurrentPrice.StringFixed(2),
					"percent_drop", drop.PercentDrop.StringFixed(1))
				result.Alerts = append(result.Alerts, drop)

				if err := t.notifier.SendPriceDropAlert(ctx, drop); err != nil {
					t.logger.Error("failed to send alert",
						"product", product.Name, "site", site, "error", err)
				}
			}
		}

		if product.TargetPrice != nil && res.Price.LessThanOrEqual(*product.TargetPrice) {
			t.logger.Info("target price reached",
				"product", product.Name,
				"site", site,
				"price", res.Price.StringFixed(2),
				"target", product.TargetPrice.StringFixed(2))
		}
	}

	return result, nil
}

// TrackAll runs one full cycle over products. It always returns the results
// accumulated so far; a store failure stops the cycle early and is logged.
func (t *Tracker) TrackAll(ctx context.Context, products []config.Product) []*CycleResult {
	t.logger.Info("starting tracking cycle", "products", len(products))

	var results []*CycleResult
	for _, product := range products {
		result, err := t.TrackProduct(ctx, product)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			t.logger.Error("tracking cycle aborted", "product", product.Name, "error", err)
			break
		}
	}

	t.logger.Info("tracking cycle complete", "products", len(results))
	return results
}
