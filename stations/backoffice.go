package stations

import (
	"context"
	"fmt"

	"github.com/ministore/retail-engine/checkout"
	"github.com/ministore/retail-engine/engine"
)

// =============================================================================
// BACK OFFICE
// =============================================================================

// BackOffice is the staff station: direct stock increments and catalogue
// edits, with no purchase semantics, plus the order report.
type BackOffice struct {
	stock  engine.StockReadWriter
	orders engine.OrderProcessing
	bus    *engine.Bus
}

// NewBackOffice creates a back-office station. bus may be nil.
func NewBackOffice(stock engine.StockReadWriter, orders engine.OrderProcessing, bus *engine.Bus) *BackOffice {
	return &BackOffice{stock: stock, orders: orders, bus: bus}
}

// Query shows the current ledger record for a product.
func (b *BackOffice) Query(ctx context.Context, productID string) engine.Result {
	pr, err := b.stock.GetDetails(ctx, productID)
	if engine.IsNotFound(err) {
		return engine.Result{Message: "Unknown product number " + productID}
	}
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	return engine.Result{Message: fmt.Sprintf("%s : %7s (%2d)",
		pr.Description, pr.UnitPrice.StringFixed(2), pr.Quantity)}
}

// Restock adds quantity directly to the ledger.
func (b *BackOffice) Restock(ctx context.Context, productID, quantity string) engine.Result {
	amount, ok := checkout.Quantity(quantity)
	if !ok {
		return engine.Result{Message: "Invalid quantity!"}
	}

	if err := b.stock.AddStock(ctx, productID, amount); err != nil {
		if engine.IsNotFound(err) {
			return engine.Result{Message: "Unknown product number " + productID}
		}
		return engine.Result{Message: "Backend unavailable", Err: err}
	}

	b.bus.Publish(engine.Event{
		Type:      engine.EventStockRestocked,
		ProductID: productID,
		Quantity:  amount,
	})
	// Show the post-restock record, best effort.
	pr, err := b.stock.GetDetails(ctx, productID)
	if err != nil {
		return engine.Result{Message: fmt.Sprintf("Added %d to %s", amount, productID)}
	}
	return engine.Result{Message: fmt.Sprintf("%s : %7s (%2d)",
		pr.Description, pr.UnitPrice.StringFixed(2), pr.Quantity)}
}

// Edit replaces the description, price, quantity and category of an
// existing product.
func (b *BackOffice) Edit(ctx context.Context, p engine.Product) engine.Result {
	if err := b.stock.ModifyStock(ctx, p); err != nil {
		if engine.IsNotFound(err) {
			return engine.Result{Message: "Unknown product number " + p.ID}
		}
		return engine.Result{Message: "Backend unavailable", Err: err}
	}

	b.bus.Publish(engine.Event{Type: engine.EventStockModified, ProductID: p.ID})
	return engine.Result{Message: "Updated " + p.ID}
}

// Report renders the order report verbatim.
func (b *BackOffice) Report(ctx context.Context) (string, error) {
	return b.orders.GenerateOrderReport(ctx)
}
