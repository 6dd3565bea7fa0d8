package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlers() *Handlers {
	return NewHandlers(nil, nil, nil, slog.Default())
}

func TestTriggerTrack_NoProductsConfigured(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/track", nil)
	rec := httptest.NewRecorder()
	h.TriggerTrack(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "no products configured")
}

func TestHistory_InvalidDaysParam(t *testing.T) {
	h := newTestHandlers()

	r := chi.NewRouter()
	r.Get("/api/v1/products/{name}/history", h.History)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/Widget/history?days=zero", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_NegativeDaysParam(t *testing.T) {
	h := newTestHandlers()

	r := chi.NewRouter()
	r.Get("/api/v1/products/{name}/history", h.History)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/Widget/history?days=-3", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductName_Unescapes(t *testing.T) {
	h := newTestHandlers()

	r := chi.NewRouter()
	var got string
	r.Get("/api/v1/products/{name}/history", func(w http.ResponseWriter, req *http.Request) {
		got = h.productName(req)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/Sony%20WH-1000XM4/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sony WH-1000XM4", got)
}
