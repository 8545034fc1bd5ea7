/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that lets stations reach the
  shared stores remotely; the engine itself does not care whether calls
  arrive locally or over HTTP.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for station frontends

ROUTE GROUPS:
  /api/products/*   Stock ledger (lookup, buy, restock, modify)
  /api/orders/*     Order lifecycle (submit, poll, pack, collect, report)
  /api/admin/*      Seed/reset (dev only)

SECURITY NOTE:
  No authentication middleware. Station authentication is out of scope
  for this engine.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Stock ledger routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
			r.Get("/{id}/image", h.GetProductImage)
			r.Post("/{id}/buy", h.BuyStock)
			r.Post("/{id}/stock", h.AddStock)
			r.Put("/{id}", h.ModifyStock)
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.GetOrderStates)
			r.Post("/", h.SubmitOrder)
			r.Get("/next", h.GetOrderToPack)
			r.Get("/report", h.GetOrderReport)
			r.Get("/audit", h.GetOrderAudit)
			r.Post("/{number}/packed", h.InformPacked)
			r.Post("/{number}/collected", h.InformCollected)
		})

		// Admin routes (dev/demo)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed", h.SeedDemo)
		})
	})

	return r
}
