/*
errors.go - Centralized error types for the transaction engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations and station flows wrap these with context.

ERROR CATEGORIES:
  1. Not-found errors - unknown product or order ids
  2. Order lifecycle errors - illegal or duplicate transitions
  3. Backend errors - storage/transport faults

NOTE:
  Insufficient stock is NOT an error. BuyStock reports it as a plain
  false because a competing station emptying the shelf between a check
  and a buy is an expected outcome, not a fault.

USAGE:
  if errors.Is(err, engine.ErrProductNotFound) { ... }
  if engine.IsUnavailable(err) { ... stay in current state ... }

SEE ALSO:
  - stock.go, orders.go: Contracts returning these errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProductNotFound is returned when a product id is not in the ledger.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound is returned when an order number is unknown.
	ErrOrderNotFound = errors.New("order not found")

	// ErrEmptyBasket is returned when an empty basket is submitted as an order.
	ErrEmptyBasket = errors.New("empty basket")

	// ErrDuplicateOrder is returned when a basket's order number has already
	// been submitted.
	ErrDuplicateOrder = errors.New("order already submitted")

	// ErrInvalidOrderState is returned for transitions that would skip or
	// regress the lifecycle, e.g. collecting an order that was never packed.
	ErrInvalidOrderState = errors.New("invalid order state")

	// ErrBackendUnavailable is returned when the backing store cannot be
	// reached. Callers must not assume the operation took effect.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports a shortage with the amounts involved.
// Only AddStock-style compensations surface it; BuyStock reports
// shortage as false.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// OrderStateError reports an illegal lifecycle transition.
type OrderStateError struct {
	OrderNumber int
	From        OrderState
	To          OrderState
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("order %d: cannot move %s -> %s", e.OrderNumber, e.From, e.To)
}

func (e *OrderStateError) Unwrap() error { return ErrInvalidOrderState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// Unavailable wraps a storage/transport fault so callers can detect it
// with IsUnavailable and abstain from optimistic state changes.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, op, err)
}

// IsNotFound returns true if the error indicates a missing product or order.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrOrderNotFound)
}

// IsClientError returns true if the error is a recoverable, user-facing
// condition rather than a fault.
func IsClientError(err error) bool {
	return IsNotFound(err) ||
		errors.Is(err, ErrEmptyBasket) ||
		errors.Is(err, ErrDuplicateOrder) ||
		errors.Is(err, ErrInvalidOrderState)
}

// IsUnavailable returns true if the backing store could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
