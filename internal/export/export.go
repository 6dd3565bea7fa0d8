// Package export renders price history for external consumption.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/price-tracker/internal/database"
)

var csvHeader = []string{"product_name", "site", "price", "title", "url", "available", "timestamp"}

// WriteCSV writes records as CSV with a header row.
func WriteCSV(w io.Writer, records []*database.ExportRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Product,
			rec.Site,
			rec.Price.StringFixed(2),
			rec.Title,
			rec.URL,
			strconv.FormatBool(rec.Available),
			rec.RecordedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []*database.ExportRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// Filename builds an export file name like iPhone_15_Pro_20250102_150405.csv.
// An empty product yields all_products_<timestamp>.<format>.
func Filename(product, format string, now time.Time) string {
	stamp := now.Format("20060102_150405")
	if product == "" {
		return fmt.Sprintf("all_products_%s.%s", stamp, format)
	}
	return fmt.Sprintf("%s_%s.%s", strings.ReplaceAll(product, " ", "_"), stamp, format)
}
