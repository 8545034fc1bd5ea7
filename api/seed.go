/*
seed.go - Demo catalogue loader

PURPOSE:
  Populates the stock list with a small demo catalogue for development
  and demonstrations, in the spirit of a high-street mini store.

USAGE VIA API:
  POST /api/admin/seed

NOTE:
  Seeding replaces the listed products in place; it does not touch
  orders. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: SeedDemo handler
  - cmd/server/main.go: -seed flag
*/
package api

import (
	"context"
	"net/http"

	"github.com/ministore/retail-engine/engine"
	"github.com/shopspring/decimal"
)

// DemoCatalogue is the stock list loaded by SeedDemo.
func DemoCatalogue() []engine.Product {
	price := func(s string) decimal.Decimal {
		d, _ := decimal.NewFromString(s)
		return d
	}
	return []engine.Product{
		{ID: "0001", Description: "40 inch LED HD TV", UnitPrice: price("269.00"), Quantity: 90, Category: "Electronics"},
		{ID: "0002", Description: "DAB Radio", UnitPrice: price("29.99"), Quantity: 20, Category: "Electronics"},
		{ID: "0003", Description: "Toaster", UnitPrice: price("19.99"), Quantity: 33, Category: "Kitchen"},
		{ID: "0004", Description: "Watch", UnitPrice: price("29.99"), Quantity: 10, Category: "Accessories"},
		{ID: "0005", Description: "Digital Camera", UnitPrice: price("89.99"), Quantity: 17, Category: "Electronics"},
		{ID: "0006", Description: "MP3 player", UnitPrice: price("7.99"), Quantity: 15, Category: "Electronics"},
		{ID: "0007", Description: "32Gb USB2 drive", UnitPrice: price("6.99"), Quantity: 1, Category: "Accessories"},
	}
}

// LoadDemoCatalogue writes the demo products through a StockAdmin.
func LoadDemoCatalogue(ctx context.Context, admin engine.StockAdmin) error {
	for _, p := range DemoCatalogue() {
		if err := admin.SaveProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// SeedDemo loads the demo catalogue.
// POST /api/admin/seed
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if h.Admin == nil {
		writeError(w, http.StatusNotFound, "Seeding not available", nil)
		return
	}
	if err := LoadDemoCatalogue(r.Context(), h.Admin); err != nil {
		writeEngineError(w, "Failed to seed catalogue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "seeded",
		"products": len(DemoCatalogue()),
	})
}
