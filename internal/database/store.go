package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/maltedev/price-tracker/internal/models"
)

// PriceStore persists price observations and answers change/drop queries.
// All operations are keyed by product display name; the product row is
// created on first use.
type PriceStore struct {
	db     *DB
	logger *slog.Logger
}

func NewPriceStore(db *DB, logger *slog.Logger) *PriceStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceStore{
		db:     db,
		logger: logger.With("component", "price_store"),
	}
}

// RecordPrice appends a new observation for (product, site) and reports
// whether the price differs from the immediately preceding record. The first
// observation for a pair always counts as changed.
//
// The read-compare-append runs in one transaction; the product upsert takes a
// row lock, so concurrent recorders for the same product are serialized.
func (s *PriceStore) RecordPrice(ctx context.Context, product, site string, price decimal.Decimal, title, url string, available bool) (bool, error) {
	if price.IsNegative() {
		return false, fmt.Errorf("price cannot be negative: %s", price)
	}

	var changed bool
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var productID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO products (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			product,
		).Scan(&productID)
		if err != nil {
			return fmt.Errorf("failed to upsert product: %w", err)
		}

		var lastPriceText string
		err = tx.QueryRow(ctx,
			`SELECT price::text FROM price_history
			 WHERE product_id = $1 AND site = $2
			 ORDER BY recorded_at DESC, id DESC
			 LIMIT 1`,
			productID, site,
		).Scan(&lastPriceText)

		switch {
		case err == pgx.ErrNoRows:
			changed = true
		case err != nil:
			return fmt.Errorf("failed to read last price: %w", err)
		default:
			lastPrice, perr := decimal.NewFromString(lastPriceText)
			if perr != nil {
				return fmt.Errorf("failed to parse stored price %q: %w", lastPriceText, perr)
			}
			changed = !lastPrice.Equal(price)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO price_history (product_id, site, price, title, url, available)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			productID, site, price.StringFixed(2), title, url, available,
		)
		if err != nil {
			return fmt.Errorf("failed to insert price record: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("recorded price",
		"product", product,
		"site", site,
		"price", price.StringFixed(2),
		"changed", changed)
	return changed, nil
}

// LatestPrices returns the most recent observation per site for a product.
func (s *PriceStore) LatestPrices(ctx context.Context, product string) (map[string]models.LatestPrice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT ON (ph.site) ph.site, ph.price::text, ph.recorded_at
		 FROM price_history ph
		 JOIN products p ON ph.product_id = p.id
		 WHERE p.name = $1
		 ORDER BY ph.site, ph.recorded_at DESC, ph.id DESC`,
		product,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]models.LatestPrice)
	for rows.Next() {
		var site, priceText string
		var recordedAt time.Time
		if err := rows.Scan(&site, &priceText, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan latest price: %w", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", priceText, err)
		}
		latest[site] = models.LatestPrice{Price: price, RecordedAt: recordedAt}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return latest, nil
}

// CheckDrop compares the two most recent records for (product, site) and
// returns a DropEvent when the decrease meets the absolute threshold or the
// percentage threshold. A price rise never qualifies; fewer than two records
// yields nil.
func (s *PriceStore) CheckDrop(ctx context.Context, product, site string, percentThreshold, amountThreshold decimal.Decimal) (*models.DropEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ph.price::text, ph.recorded_at
		 FROM price_history ph
		 JOIN products p ON ph.product_id = p.id
		 WHERE p.name = $1 AND ph.site = $2
		 ORDER BY ph.recorded_at DESC, ph.id DESC
		 LIMIT 2`,
		product, site,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var prices []decimal.Decimal
	var timestamps []time.Time
	for rows.Next() {
		var priceText string
		var recordedAt time.Time
		if err := rows.Scan(&priceText, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", priceText, err)
		}
		prices = append(prices, price)
		timestamps = append(timestamps, recordedAt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(prices) < 2 {
		return nil, nil
	}

	current, previous := prices[0], prices[1]
	drop := previous.Sub(current)
	if drop.Sign() < 0 {
		return nil, nil
	}

	var percent decimal.Decimal
	if !previous.IsZero() {
		percent = drop.Div(previous).Mul(decimal.NewFromInt(100))
	}

	if drop.GreaterThanOrEqual(amountThreshold) || percent.GreaterThanOrEqual(percentThreshold) {
		return &models.DropEvent{
			Product:       product,
			Site:          site,
			PreviousPrice: previous,
			CurrentPrice:  current,
			AmountDrop:    drop,
			PercentDrop:   percent,
			RecordedAt:    timestamps[0],
		}, nil
	}

	return nil, nil
}

// History returns records for a product newer than now minus days, newest
// first. An empty site matches all sites.
func (s *PriceStore) History(ctx context.Context, product, site string, days int) ([]*models.PriceRecord, error) {
	query := `
		SELECT ph.id, ph.product_id, ph.site, ph.price::text,
		       COALESCE(ph.title, ''), ph.url, ph.available, ph.recorded_at
		FROM price_history ph
		JOIN products p ON ph.product_id = p.id
		WHERE p.name = $1 AND ph.recorded_at >= $2`
	args := []interface{}{product, time.Now().AddDate(0, 0, -days)}

	if site != "" {
		query += ` AND ph.site = $3`
		args = append(args, site)
	}
	query += ` ORDER BY ph.recorded_at DESC, ph.id DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// AllRecords returns every record joined with its product name, for exports.
// An empty product matches all products.
func (s *PriceStore) AllRecords(ctx context.Context, product string) ([]*ExportRecord, error) {
	query := `
		SELECT p.name, ph.site, ph.price::text, COALESCE(ph.title, ''),
		       ph.url, ph.available, ph.recorded_at
		FROM price_history ph
		JOIN products p ON ph.product_id = p.id`
	var args []interface{}

	if product != "" {
		query += ` WHERE p.name = $1`
		args = append(args, product)
	}
	query += ` ORDER BY p.name, ph.recorded_at DESC, ph.id DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*ExportRecord
	for rows.Next() {
		rec := &ExportRecord{}
		var priceText string
		if err := rows.Scan(&rec.Product, &rec.Site, &priceText, &rec.Title,
			&rec.URL, &rec.Available, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", priceText, err)
		}
		rec.Price = price
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// ExportRecord is one price observation joined with its product name.
type ExportRecord struct {
	Product    string          `json:"product_name"`
	Site       string          `json:"site"`
	Price      decimal.Decimal `json:"price"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Available  bool            `json:"available"`
	RecordedAt time.Time       `json:"timestamp"`
}

// ListProducts returns all tracked product names in alphabetical order.
func (s *PriceStore) ListProducts(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan product name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return names, nil
}

func scanPriceRecords(rows pgx.Rows) ([]*models.PriceRecord, error) {
	var records []*models.PriceRecord
	for rows.Next() {
		rec := &models.PriceRecord{}
		var priceText string
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.Site, &priceText,
			&rec.Title, &rec.URL, &rec.Available, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", priceText, err)
		}
		rec.Price = price
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
