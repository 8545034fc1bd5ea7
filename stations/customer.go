/*
Package stations implements the non-cashier station flows: customer
lookup, packing, and back office.

PURPOSE:
  Each station type wraps the shared stores with the small amount of
  per-station state the original terminals kept (current display basket,
  order being packed, active category filter). Like checkout sessions,
  a station value belongs to one terminal and is not shared.

FLOWS:
  Browser:    Read-only lookup by id and category filter. Never mutates
              the ledger.
  Packer:     Polls for the next Placed order, confirms packing,
              renders reports.
  BackOffice: Direct stock increments and catalogue edits, plus reports.

SEE ALSO:
  - checkout: The cashier state machine
  - engine: Contracts all three flows are built on
*/
package stations

import (
	"context"
	"fmt"
	"strings"

	"github.com/ministore/retail-engine/engine"
)

// =============================================================================
// CUSTOMER BROWSER
// =============================================================================

// Browser is the customer lookup station. Pure read: it holds a one-line
// display basket and the current category listing, and never touches the
// write side of the ledger.
type Browser struct {
	stock engine.StockReader

	basket   *engine.Basket
	picture  []byte
	filtered []engine.Product
	category string
}

func NewBrowser(stock engine.StockReader) *Browser {
	return &Browser{
		stock:    stock,
		basket:   engine.NewBasket(),
		category: engine.CategoryAll,
	}
}

// Check previews one product. It reserves nothing; on success the
// display basket holds a quantity-1 snapshot and the product image is
// fetched for display.
func (b *Browser) Check(ctx context.Context, productID string) engine.Result {
	b.Clear()
	id := strings.TrimSpace(productID)

	exists, err := b.stock.Exists(ctx, id)
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	if !exists {
		return engine.Result{Message: "Unknown product number " + id}
	}

	pr, err := b.stock.GetDetails(ctx, id)
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	if pr.Quantity < 1 {
		return engine.Result{Message: pr.Description + " not in stock"}
	}

	msg := fmt.Sprintf("%s : %7s (%2d)",
		pr.Description, pr.UnitPrice.StringFixed(2), pr.Quantity)
	pr.Quantity = 1
	b.basket.Add(pr)
	b.picture, _ = b.stock.GetImage(ctx, id) // image is optional
	return engine.Result{Message: msg}
}

// FilterByCategory lists products in a category. engine.CategoryAll
// shows everything.
func (b *Browser) FilterByCategory(ctx context.Context, category string) engine.Result {
	products, err := b.stock.GetProductsByCategory(ctx, category)
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	b.category = category
	b.filtered = products

	if len(products) == 0 {
		return engine.Result{Message: "No products found in " + category}
	}
	return engine.Result{Message: "Showing " + category + " products"}
}

// Display renders the current category listing, falling back to the
// display basket when no filter is active.
func (b *Browser) Display() string {
	if len(b.filtered) == 0 {
		return b.basket.Details()
	}

	var sb strings.Builder
	sb.WriteString("Available Products:\n\n")
	for _, p := range b.filtered {
		fmt.Fprintf(&sb, "%s: %s - £%s (%d in stock)\n",
			p.ID, p.Description, p.UnitPrice.StringFixed(2), p.Quantity)
	}
	return sb.String()
}

// Picture returns the last fetched product image, or nil.
func (b *Browser) Picture() []byte { return b.picture }

// Clear resets the display basket, picture and listing.
func (b *Browser) Clear() {
	b.basket.Clear()
	b.picture = nil
	b.filtered = nil
}
