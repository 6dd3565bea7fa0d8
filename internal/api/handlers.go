package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/price-tracker/internal/config"
	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/tracker"
)

// Handlers holds dependencies for the HTTP API.
type Handlers struct {
	store    *database.PriceStore
	tracker  *tracker.Tracker
	products []config.Product
	logger   *slog.Logger
}

func NewHandlers(store *database.PriceStore, tr *tracker.Tracker, products []config.Product, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:    store,
		tracker:  tr,
		products: products,
		logger:   logger.With("component", "api"),
	}
}

// ListProducts returns all products that have recorded price history.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// LatestPrices returns the most recent price per site for a product.
func (h *Handlers) LatestPrices(w http.ResponseWriter, r *http.Request) {
	name := h.productName(r)
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "product name is required")
		return
	}

	prices, err := h.store.LatestPrices(r.Context(), name)
	if err != nil {
		h.logger.Error("failed to get latest prices", "product", name, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get latest prices")
		return
	}
	if len(prices) == 0 {
		h.respondError(w, http.StatusNotFound, "no price history for product")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"product": name,
		"prices":  prices,
	})
}

// History returns price records for a product, optionally filtered by
// site and bounded by a lookback window in days.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	name := h.productName(r)
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "product name is required")
		return
	}

	site := r.URL.Query().Get("site")
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	records, err := h.store.History(r.Context(), name, site, days)
	if err != nil {
		h.logger.Error("failed to get price history", "product", name, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get price history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"product": name,
		"site":    site,
		"days":    days,
		"records": records,
		"count":   len(records),
	})
}

// TriggerTrack runs a tracking cycle over the configured products and
// returns the results. Intended for manual checks between scheduled runs.
func (h *Handlers) TriggerTrack(w http.ResponseWriter, r *http.Request) {
	if len(h.products) == 0 {
		h.respondError(w, http.StatusServiceUnavailable, "no products configured")
		return
	}

	name := r.URL.Query().Get("product")
	products := h.products
	if name != "" {
		products = nil
		for _, p := range h.products {
			if p.Name == name {
				products = []config.Product{p}
				break
			}
		}
		if products == nil {
			h.respondError(w, http.StatusNotFound, "product not configured")
			return
		}
	}

	results := h.tracker.TrackAll(r.Context(), products)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *Handlers) productName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
