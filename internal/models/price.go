package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a tracked product. Records are keyed by its unique name and
// created lazily on the first observed price.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceRecord is a single append-only price observation for a (product, site)
// pair. Records are never mutated or deleted.
type PriceRecord struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Site       string          `json:"site"`
	Price      decimal.Decimal `json:"price"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Available  bool            `json:"available"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// LatestPrice is the most recent observation for one site.
type LatestPrice struct {
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// DropEvent describes a qualifying price drop between the two most recent
// records for a (product, site) pair. It is derived on demand and handed to
// the notifier, never persisted.
type DropEvent struct {
	Product       string          `json:"product"`
	Site          string          `json:"site"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	AmountDrop    decimal.Decimal `json:"amount_drop"`
	PercentDrop   decimal.Decimal `json:"percent_drop"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
