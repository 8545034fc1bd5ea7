/*
Package engine provides the core inventory/order transaction engine.

PURPOSE:
  This package contains the types and contracts shared by every retail
  station (cashier, customer lookup, packing, back office). All stations
  operate against one shared stock ledger and one shared order store, so
  the contracts here are written for concurrent callers: every mutation
  is a single atomic call, and no caller ever holds a lock across two
  calls.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: A stock-list entry (id, description, price, quantity, category)
  - Basket: The in-progress purchases of one checkout session
  - Order: A submitted basket tracked through Placed/Packed/Collected
  - Result: The outcome value returned by station operations

DESIGN PRINCIPLES:
  1. Copies, not references: the ledger returns Product copies, so a
     caller overwriting Quantity to mean "quantity wanted" cannot corrupt
     the ledger.
  2. Precision: decimal.Decimal for prices, never float64.
  3. Forward-only lifecycle: order state advances and never regresses;
     transitions are idempotent.

SEE ALSO:
  - stock.go: Stock ledger contracts
  - orders.go: Order processing contract
  - errors.go: Error taxonomy
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT - One stock-list entry
// =============================================================================

// Product is a snapshot of one stock-list entry. The ledger owns the
// authoritative record; values handed to callers are copies. Basket lines
// reuse Product with Quantity repurposed as the quantity chosen.
type Product struct {
	ID          string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
	Category    string
}

// LineTotal returns UnitPrice multiplied by Quantity.
func (p Product) LineTotal() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// =============================================================================
// BASKET - In-progress purchases for one checkout session
// =============================================================================

// Basket holds the purchased lines of one checkout session, in purchase
// order. OrderNumber is 0 until the session opens an order.
type Basket struct {
	OrderNumber int
	Lines       []Product
}

func NewBasket() *Basket {
	return &Basket{}
}

// Add appends a purchased line.
func (b *Basket) Add(p Product) {
	b.Lines = append(b.Lines, p)
}

// RemoveLast pops the most recently added line.
// Returns false if the basket is empty.
func (b *Basket) RemoveLast() (Product, bool) {
	if len(b.Lines) == 0 {
		return Product{}, false
	}
	last := b.Lines[len(b.Lines)-1]
	b.Lines = b.Lines[:len(b.Lines)-1]
	return last, true
}

func (b *Basket) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Lines)
}

func (b *Basket) IsEmpty() bool { return b.Size() == 0 }

// Clear removes every line but keeps the order number.
func (b *Basket) Clear() {
	b.Lines = nil
}

// Total returns the sum of all line totals.
func (b *Basket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Details renders the basket as the stations display it.
func (b *Basket) Details() string {
	var sb strings.Builder
	if b.OrderNumber != 0 {
		fmt.Fprintf(&sb, "Order number: %03d\n", b.OrderNumber)
	}
	for _, line := range b.Lines {
		fmt.Fprintf(&sb, "%-7s %-24s (%3d) £%8s\n",
			line.ID, line.Description, line.Quantity,
			line.LineTotal().StringFixed(2))
	}
	if len(b.Lines) > 0 {
		fmt.Fprintf(&sb, "Total: £%s\n", b.Total().StringFixed(2))
	}
	return sb.String()
}

// Copy returns a deep copy of the basket.
func (b *Basket) Copy() *Basket {
	if b == nil {
		return nil
	}
	cp := &Basket{OrderNumber: b.OrderNumber}
	cp.Lines = append(cp.Lines, b.Lines...)
	return cp
}

// =============================================================================
// ORDER - A submitted basket moving through the pack/collect lifecycle
// =============================================================================

type OrderState string

const (
	StatePlaced    OrderState = "placed"
	StatePacked    OrderState = "packed"
	StateCollected OrderState = "collected"
)

// rank orders the lifecycle; state only ever moves to a higher rank.
func (s OrderState) rank() int {
	switch s {
	case StatePlaced:
		return 1
	case StatePacked:
		return 2
	case StateCollected:
		return 3
	}
	return 0
}

// CanAdvanceTo reports whether a transition from s to next is a legal
// forward step (next is exactly one rank above s).
func (s OrderState) CanAdvanceTo(next OrderState) bool {
	return next.rank() == s.rank()+1
}

// Order is a submitted basket. Numbers are issued monotonically and never
// reused.
type Order struct {
	Number int
	Basket Basket
	State  OrderState
}

// =============================================================================
// RESULT - Outcome of a station operation
// =============================================================================

// Result is the value every station operation returns. Message is the
// user-facing action text; Err is set only for backend faults the caller
// may want to branch on (see errors.go).
type Result struct {
	Message string
	Err     error
}
