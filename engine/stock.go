/*
stock.go - Stock ledger contracts

PURPOSE:
  Defines the interface between the stations and the stock ledger, the
  authoritative store of per-product quantities. Multiple stations call
  one shared ledger concurrently, so the write side is specified in
  atomic read-modify-write steps.

KEY INTERFACES:
  StockReader:     Read-only lookup and category browsing
  StockReadWriter: Reader plus the atomic mutations
  StockAdmin:      Catalogue maintenance (seed/demo data)

ATOMICITY CONTRACT:
  BuyStock is a single check-and-decrement. There is deliberately no
  separate reserve/commit pair: a check followed by a later commit is a
  race under concurrent stations. Checks are previews; BuyStock is the
  reservation.

CONCURRENCY:
  BuyStock/AddStock/ModifyStock on the same id are linearizable with
  respect to each other. No interleaving may drive a quantity negative
  or lose an update. Reads may be momentarily stale but never observe a
  value that never existed.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory (tests/dev)
  - store/sqlite/sqlite.go: Durable SQLite store

SEE ALSO:
  - orders.go: Order processing contract
  - checkout: The cashier state machine driving BuyStock
*/
package engine

import "context"

// CategoryAll is the sentinel category meaning "no filter".
const CategoryAll = "All"

// =============================================================================
// READ SIDE
// =============================================================================

// StockReader provides read access to the stock list. All returned
// Products are copies; mutating them does not affect the ledger.
type StockReader interface {
	// Exists reports whether the product is in the stock list.
	// An unknown id is (false, nil), never an error.
	Exists(ctx context.Context, id string) (bool, error)

	// GetDetails returns a copy of the product record.
	// Returns ErrProductNotFound for an unknown id.
	GetDetails(ctx context.Context, id string) (Product, error)

	// GetProductsByCategory returns all products in a category, ordered by
	// id. CategoryAll returns everything. No matches is an empty slice,
	// not an error.
	GetProductsByCategory(ctx context.Context, category string) ([]Product, error)

	// GetImage returns the product image bytes, or nil if the product has
	// no image. Returns ErrProductNotFound for an unknown id.
	GetImage(ctx context.Context, id string) ([]byte, error)
}

// =============================================================================
// WRITE SIDE
// =============================================================================

// StockReadWriter extends StockReader with the atomic mutations.
type StockReadWriter interface {
	StockReader

	// BuyStock atomically checks and decrements. It returns true and
	// decrements the quantity by amount iff the product exists and has at
	// least amount on hand; otherwise it returns false and changes
	// nothing. A false from a shelf emptied by another station is an
	// expected outcome, not an error.
	BuyStock(ctx context.Context, id string, amount int) (bool, error)

	// AddStock atomically increments the quantity. Used for back-office
	// restocking and for undo/cancel compensation.
	// Returns ErrProductNotFound for an unknown id.
	AddStock(ctx context.Context, id string, amount int) error

	// ModifyStock atomically replaces description, price, quantity and
	// category for an existing id.
	// Returns ErrProductNotFound for an unknown id.
	ModifyStock(ctx context.Context, p Product) error
}

// =============================================================================
// ADMIN SIDE
// =============================================================================

// StockAdmin maintains the catalogue itself. Stations never use it; it
// exists for seeding demo data and catalogue management tooling.
type StockAdmin interface {
	// SaveProduct inserts or replaces a catalogue entry.
	SaveProduct(ctx context.Context, p Product) error

	// SaveImage attaches image bytes to an existing product.
	// Returns ErrProductNotFound for an unknown id.
	SaveImage(ctx context.Context, id string, image []byte) error
}
