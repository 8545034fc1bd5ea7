/*
orders.go - Order processing contract

PURPOSE:
  Defines the interface to the shared order store: number issuance,
  basket submission, and the Placed -> Packed -> Collected lifecycle.

LIFECYCLE RULES:
  - Order numbers are unique and monotonically issued, never reused,
    even across concurrent callers.
  - State only advances forward. Re-informing a transition that already
    happened is a no-op success, not an error (idempotent).
  - Collecting before packing is a hard failure (OrderStateError).

AUDIT:
  Every transition appends an audit entry, so the lifecycle of any order
  can be reconstructed after the fact.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory (tests/dev)
  - store/sqlite/sqlite.go: Durable SQLite store

SEE ALSO:
  - stock.go: Stock ledger contract
  - stations: Packing and back-office flows consuming this contract
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// ORDER PROCESSING
// =============================================================================

// OrderProcessing is the shared order store contract.
type OrderProcessing interface {
	// UniqueNumber issues a new order number. Numbers never repeat across
	// the lifetime of the store, even under concurrent callers.
	UniqueNumber(ctx context.Context) (int, error)

	// NewOrder persists the basket as a new Placed order. If the basket
	// has no order number yet, one is issued and written back to the
	// basket. Returns ErrEmptyBasket for an empty basket and
	// ErrDuplicateOrder if the number was already submitted.
	NewOrder(ctx context.Context, basket *Basket) error

	// GetOrderToPack returns a copy of the oldest Placed order's basket
	// without changing its state, or nil if no order is pending. Safe to
	// poll repeatedly.
	GetOrderToPack(ctx context.Context) (*Basket, error)

	// InformOrderPacked transitions Placed -> Packed. Returns true for a
	// fresh transition and for an order already at or past Packed
	// (idempotent). Returns ErrOrderNotFound for an unknown number.
	InformOrderPacked(ctx context.Context, orderNumber int) (bool, error)

	// InformOrderCollected transitions Packed -> Collected. Returns true
	// for a fresh transition and for an already-collected order. An order
	// still Placed cannot be collected: OrderStateError.
	InformOrderCollected(ctx context.Context, orderNumber int) (bool, error)

	// GetOrderState returns the state of every known order.
	GetOrderState(ctx context.Context) (map[int]OrderState, error)

	// GenerateOrderReport renders a multi-line summary of all orders
	// grouped by state. Read-only.
	GenerateOrderReport(ctx context.Context) (string, error)
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

// AuditEntry records one lifecycle transition.
type AuditEntry struct {
	ID          string
	OrderNumber int
	From        OrderState
	To          OrderState
	At          time.Time
}

// OrderAuditor exposes the transition history. Both stores implement it;
// it is separate from OrderProcessing because stations never need it.
type OrderAuditor interface {
	AuditTrail(ctx context.Context) ([]AuditEntry, error)
}
