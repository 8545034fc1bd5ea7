/*
Package checkout implements the cashier's two-phase checkout state
machine.

PURPOSE:
  One Session per cashier station drives: check availability -> buy ->
  accumulate into basket -> submit as order, with undo of the last line
  and cancel of the whole basket. Sessions are never shared between
  stations; each has its own lifetime.

STATE MACHINE:
  Idle -> (Check ok) -> Checked -> (Buy, success or failure) -> Idle

  Check is a PREVIEW: it reserves nothing. The reservation is Buy's
  single atomic BuyStock call. Another station may empty the shelf
  between Check and Buy, in which case BuyStock legitimately returns
  false and the session reports "!!! Not in stock" - expected, not a
  bug.

COMPENSATION:
  UndoLast and Cancel credit quantities back with AddStock. This is
  best-effort: if the ledger rejects the credit (product deleted
  concurrently) the failure is reported but the line stays removed -
  at-most-once compensation over perfect symmetry.

SEE ALSO:
  - engine/stock.go: The atomic ledger contract Buy relies on
  - engine/orders.go: Order submission
*/
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/ministore/retail-engine/engine"
)

// =============================================================================
// SESSION
// =============================================================================

// Phase is the session's position in the two-phase protocol.
type Phase int

const (
	Idle Phase = iota
	Checked
)

// Session is the checkout state machine for one cashier station.
// Not safe for concurrent use; each station owns exactly one.
type Session struct {
	stock  engine.StockReadWriter
	orders engine.OrderProcessing
	bus    *engine.Bus

	phase   Phase
	pending engine.Product
	basket  *engine.Basket
}

// NewSession creates a session against the shared stores. bus may be nil.
func NewSession(stock engine.StockReadWriter, orders engine.OrderProcessing, bus *engine.Bus) *Session {
	return &Session{stock: stock, orders: orders, bus: bus}
}

// Phase returns the current phase. Exposed for tests and displays.
func (s *Session) Phase() Phase { return s.phase }

// Basket returns the in-progress basket, or nil before the first
// successful purchase and after submission.
func (s *Session) Basket() *engine.Basket { return s.basket }

// =============================================================================
// TWO-PHASE PROTOCOL
// =============================================================================

// Check previews availability of quantityWanted units of a product. On
// success the product is remembered with Quantity overwritten to the
// wanted amount and the session moves to Checked. Nothing is reserved.
func (s *Session) Check(ctx context.Context, productID, quantityWanted string) engine.Result {
	s.phase = Idle

	amount, ok := Quantity(quantityWanted)
	if !ok {
		return engine.Result{Message: "Invalid quantity!"}
	}
	id := strings.TrimSpace(productID)

	exists, err := s.stock.Exists(ctx, id)
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	if !exists {
		return engine.Result{Message: "Unknown product number " + id}
	}

	pr, err := s.stock.GetDetails(ctx, id)
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	if pr.Quantity < amount {
		return engine.Result{Message: fmt.Sprintf("%s only %d in stock",
			pr.Description, pr.Quantity)}
	}

	msg := fmt.Sprintf("%s : %7s (%2d)",
		pr.Description, pr.UnitPrice.StringFixed(2), pr.Quantity)
	s.pending = pr
	s.pending.Quantity = amount // snapshot carries the wanted quantity
	s.phase = Checked
	return engine.Result{Message: msg}
}

// Buy performs the atomic reservation of the checked product and appends
// it to the basket. Always returns the session to Idle.
func (s *Session) Buy(ctx context.Context) engine.Result {
	if s.phase != Checked {
		return engine.Result{Message: "please check its availability"}
	}
	s.phase = Idle

	bought, err := s.stock.BuyStock(ctx, s.pending.ID, s.pending.Quantity)
	if err != nil {
		// Unknown outcome; do not append optimistically.
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	if !bought {
		return engine.Result{Message: "!!! Not in stock"}
	}

	if res, ok := s.makeBasketIfReq(ctx); !ok {
		return res
	}
	s.basket.Add(s.pending)
	s.bus.Publish(engine.Event{
		Type:        engine.EventStockPurchased,
		ProductID:   s.pending.ID,
		Quantity:    s.pending.Quantity,
		OrderNumber: s.basket.OrderNumber,
	})
	return engine.Result{Message: "Purchased " + s.pending.Description}
}

// makeBasketIfReq lazily creates the basket with a fresh order number.
// If number issuance fails, the just-bought stock is credited back so
// the purchase is not silently lost outside any basket.
func (s *Session) makeBasketIfReq(ctx context.Context) (engine.Result, bool) {
	if s.basket != nil {
		return engine.Result{}, true
	}
	number, err := s.orders.UniqueNumber(ctx)
	if err != nil {
		if addErr := s.stock.AddStock(ctx, s.pending.ID, s.pending.Quantity); addErr != nil {
			return engine.Result{Message: "Backend unavailable", Err: addErr}, false
		}
		return engine.Result{Message: "Backend unavailable", Err: err}, false
	}
	s.basket = engine.NewBasket()
	s.basket.OrderNumber = number
	return engine.Result{}, true
}

// =============================================================================
// UNDO / CANCEL
// =============================================================================

// UndoLast removes the most recently purchased line and credits its
// quantity back. A missing or empty basket is a silent no-op.
func (s *Session) UndoLast(ctx context.Context) engine.Result {
	if s.basket == nil {
		return engine.Result{}
	}
	line, ok := s.basket.RemoveLast()
	if !ok {
		return engine.Result{}
	}

	if err := s.stock.AddStock(ctx, line.ID, line.Quantity); err != nil {
		// Line stays removed: at-most-once compensation.
		return engine.Result{Message: err.Error(), Err: err}
	}
	s.bus.Publish(engine.Event{
		Type:      engine.EventStockRestocked,
		ProductID: line.ID,
		Quantity:  line.Quantity,
	})
	return engine.Result{Message: "Last item removed"}
}

// Cancel credits every basket line back and discards the basket without
// submitting an order. Individual credit failures are skipped; the last
// one encountered is reported.
func (s *Session) Cancel(ctx context.Context) engine.Result {
	if s.basket == nil {
		return engine.Result{}
	}

	var lastErr error
	for _, line := range s.basket.Lines {
		if err := s.stock.AddStock(ctx, line.ID, line.Quantity); err != nil {
			lastErr = err
			continue
		}
		s.bus.Publish(engine.Event{
			Type:      engine.EventStockRestocked,
			ProductID: line.ID,
			Quantity:  line.Quantity,
		})
	}
	s.basket = nil
	s.phase = Idle

	if lastErr != nil {
		return engine.Result{Message: lastErr.Error(), Err: lastErr}
	}
	return engine.Result{Message: "Order cancelled"}
}

// =============================================================================
// CHECKOUT
// =============================================================================

// Checkout submits the basket as a new order and clears the session's
// reference to it. An empty basket is a no-op.
func (s *Session) Checkout(ctx context.Context) engine.Result {
	if s.basket.Size() == 0 {
		return engine.Result{Message: "No items in the basket to process."}
	}

	number := s.basket.OrderNumber
	if err := s.orders.NewOrder(ctx, s.basket); err != nil {
		if engine.IsUnavailable(err) {
			// Basket kept; the cashier can retry.
			return engine.Result{Message: "Backend unavailable", Err: err}
		}
		s.basket = nil
		s.phase = Idle
		return engine.Result{Message: err.Error(), Err: err}
	}

	s.basket = nil
	s.phase = Idle
	s.bus.Publish(engine.Event{Type: engine.EventOrderPlaced, OrderNumber: number})
	return engine.Result{Message: "Start New Order"}
}
