package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maltedev/price-tracker/internal/database"
)

// NewRouter builds the HTTP router with the standard middleware stack.
func NewRouter(h *Handlers, db *database.DB) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(h, db))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{name}/latest", h.LatestPrices)
		r.Get("/products/{name}/history", h.History)
		r.Post("/track", h.TriggerTrack)
	})

	return r
}

func healthHandler(h *Handlers, db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		if err := db.Pool().Ping(ctx); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		pending, err := database.PendingCount(ctx, db)
		if err != nil {
			pending = -1
		}

		h.respondJSON(w, code, map[string]interface{}{
			"status":         status,
			"pending_alerts": pending,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
		})
	}
}
