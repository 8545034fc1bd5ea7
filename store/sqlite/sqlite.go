/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements the stock ledger (engine.StockReadWriter, engine.StockAdmin)
  and order store (engine.OrderProcessing, engine.OrderAuditor) on SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

ATOMICITY:
  BuyStock is one conditional UPDATE:

    UPDATE products SET quantity = quantity - ?
    WHERE id = ? AND quantity >= ?

  RowsAffected tells the caller whether the reservation happened. The
  check and the decrement cannot be separated, so no interleaving of
  stations can drive a quantity negative.

KEY TABLES:
  products:      Stock list (quantity is the authoritative count)
  orders:        One row per submitted order, with its lifecycle state
  order_lines:   Basket lines snapshotted at submission time
  order_counter: Single-row monotonic order number source
  order_audit:   Append-only record of every lifecycle transition

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode. In production
  with PostgreSQL, database-level concurrency control handles this
  instead.

USAGE:
  store, err := sqlite.New("./data/ministore.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/stock.go, engine/orders.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/ministore/retail-engine/engine"
	"github.com/shopspring/decimal"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: the mutex is the single arbiter, and an in-memory
	// database must not be split across pooled connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Stock list (authoritative quantities)
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		category TEXT NOT NULL DEFAULT '',
		image BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_products_category
		ON products(category);

	-- Orders (lifecycle state lives here)
	CREATE TABLE IF NOT EXISTS orders (
		number INTEGER PRIMARY KEY,
		state TEXT NOT NULL,
		placed_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_state
		ON orders(state, placed_at);

	-- Basket lines snapshotted at submission
	CREATE TABLE IF NOT EXISTS order_lines (
		order_number INTEGER NOT NULL REFERENCES orders(number),
		line_no INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		description TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		PRIMARY KEY (order_number, line_no)
	);

	-- Monotonic order number source (single row)
	CREATE TABLE IF NOT EXISTS order_counter (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO order_counter (id, value) VALUES (1, 0);

	-- Append-only lifecycle audit
	CREATE TABLE IF NOT EXISTS order_audit (
		id TEXT PRIMARY KEY,
		order_number INTEGER NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_audit_number
		ON order_audit(order_number, at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STOCK LEDGER (engine.StockReadWriter interface)
// =============================================================================

// Exists reports whether the product is in the stock list.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, engine.Unavailable("exists", err)
	}
	return count > 0, nil
}

// GetDetails returns a copy of the product record.
func (s *Store) GetDetails(ctx context.Context, id string) (engine.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, unit_price, quantity, category
		FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return engine.Product{}, engine.ErrProductNotFound
	}
	if err != nil {
		return engine.Product{}, engine.Unavailable("get details", err)
	}
	return p, nil
}

// GetProductsByCategory returns products in a category, ordered by id.
// engine.CategoryAll means no filter.
func (s *Store) GetProductsByCategory(ctx context.Context, category string) ([]engine.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, description, unit_price, quantity, category
		FROM products`
	args := []any{}
	if category != engine.CategoryAll {
		query += ` WHERE category = ? COLLATE NOCASE`
		args = append(args, category)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.Unavailable("list products", err)
	}
	defer rows.Close()

	products := []engine.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, engine.Unavailable("list products", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetImage returns the product image, or nil when the product has none.
func (s *Store) GetImage(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var image []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT image FROM products WHERE id = ?`, id).Scan(&image)
	if err == sql.ErrNoRows {
		return nil, engine.ErrProductNotFound
	}
	if err != nil {
		return nil, engine.Unavailable("get image", err)
	}
	return image, nil
}

// BuyStock atomically checks and decrements. The WHERE clause carries
// the check; zero rows affected means unknown id or insufficient stock,
// both reported as a plain false.
func (s *Store) BuyStock(ctx context.Context, id string, amount int) (bool, error) {
	if amount <= 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?`, amount, id, amount)
	if err != nil {
		return false, engine.Unavailable("buy stock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, engine.Unavailable("buy stock", err)
	}
	return affected == 1, nil
}

// AddStock atomically increments the quantity.
func (s *Store) AddStock(ctx context.Context, id string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET quantity = quantity + ?
		WHERE id = ?`, amount, id)
	if err != nil {
		return engine.Unavailable("add stock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return engine.Unavailable("add stock", err)
	}
	if affected == 0 {
		return engine.ErrProductNotFound
	}
	return nil
}

// ModifyStock replaces description, price, quantity and category of an
// existing product.
func (s *Store) ModifyStock(ctx context.Context, p engine.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET description = ?, unit_price = ?, quantity = ?, category = ?
		WHERE id = ?`,
		p.Description, p.UnitPrice.String(), p.Quantity, p.Category, p.ID)
	if err != nil {
		return engine.Unavailable("modify stock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return engine.Unavailable("modify stock", err)
	}
	if affected == 0 {
		return engine.ErrProductNotFound
	}
	return nil
}

// =============================================================================
// STOCK ADMIN (engine.StockAdmin interface)
// =============================================================================

// SaveProduct inserts or replaces a catalogue entry. Existing images are
// preserved.
func (s *Store) SaveProduct(ctx context.Context, p engine.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, description, unit_price, quantity, category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			unit_price = excluded.unit_price,
			quantity = excluded.quantity,
			category = excluded.category`,
		p.ID, p.Description, p.UnitPrice.String(), p.Quantity, p.Category)
	if err != nil {
		return engine.Unavailable("save product", err)
	}
	return nil
}

// SaveImage attaches image bytes to an existing product.
func (s *Store) SaveImage(ctx context.Context, id string, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET image = ? WHERE id = ?`, image, id)
	if err != nil {
		return engine.Unavailable("save image", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return engine.Unavailable("save image", err)
	}
	if affected == 0 {
		return engine.ErrProductNotFound
	}
	return nil
}

// Reset clears all data. Demo/dev use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		`DELETE FROM order_audit`,
		`DELETE FROM order_lines`,
		`DELETE FROM orders`,
		`UPDATE order_counter SET value = 0 WHERE id = 1`,
		`DELETE FROM products`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return engine.Unavailable("reset", err)
		}
	}
	return nil
}

// =============================================================================
// ORDER PROCESSING (engine.OrderProcessing interface)
// =============================================================================

// UniqueNumber issues the next order number from the counter row.
func (s *Store) UniqueNumber(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumberLocked(ctx)
}

func (s *Store) nextNumberLocked(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE order_counter SET value = value + 1 WHERE id = 1`); err != nil {
		return 0, engine.Unavailable("unique number", err)
	}
	var number int
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM order_counter WHERE id = 1`).Scan(&number); err != nil {
		return 0, engine.Unavailable("unique number", err)
	}
	return number, nil
}

// NewOrder persists the basket as a new Placed order.
func (s *Store) NewOrder(ctx context.Context, basket *engine.Basket) error {
	if basket.Size() == 0 {
		return engine.ErrEmptyBasket
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	number := basket.OrderNumber
	if number == 0 {
		n, err := s.nextNumberLocked(ctx)
		if err != nil {
			return err
		}
		number = n
		basket.OrderNumber = number
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.Unavailable("new order", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (number, state, placed_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		number, engine.StatePlaced, now, now); err != nil {
		if isUniqueConstraintError(err) {
			return engine.ErrDuplicateOrder
		}
		return engine.Unavailable("new order", err)
	}

	for i, line := range basket.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines
			(order_number, line_no, product_id, description, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			number, i, line.ID, line.Description,
			line.UnitPrice.String(), line.Quantity); err != nil {
			return engine.Unavailable("new order", err)
		}
	}

	if err := s.appendAuditTx(ctx, tx, number, "", engine.StatePlaced); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return engine.Unavailable("new order", err)
	}
	return nil
}

// GetOrderToPack returns the oldest Placed order's basket, or nil.
// The order is not claimed; state changes only via InformOrderPacked.
func (s *Store) GetOrderToPack(ctx context.Context) (*engine.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var number int
	err := s.db.QueryRowContext(ctx, `
		SELECT number FROM orders
		WHERE state = ?
		ORDER BY placed_at ASC, number ASC
		LIMIT 1`, engine.StatePlaced).Scan(&number)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, engine.Unavailable("order to pack", err)
	}
	return s.loadBasketLocked(ctx, number)
}

func (s *Store) loadBasketLocked(ctx context.Context, number int) (*engine.Basket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, description, unit_price, quantity
		FROM order_lines
		WHERE order_number = ?
		ORDER BY line_no ASC`, number)
	if err != nil {
		return nil, engine.Unavailable("load basket", err)
	}
	defer rows.Close()

	basket := &engine.Basket{OrderNumber: number}
	for rows.Next() {
		var (
			line  engine.Product
			price string
		)
		if err := rows.Scan(&line.ID, &line.Description, &price, &line.Quantity); err != nil {
			return nil, engine.Unavailable("load basket", err)
		}
		line.UnitPrice = mustDecimal(price)
		basket.Add(line)
	}
	return basket, rows.Err()
}

// InformOrderPacked transitions Placed -> Packed, idempotently.
func (s *Store) InformOrderPacked(ctx context.Context, orderNumber int) (bool, error) {
	return s.advance(ctx, orderNumber, engine.StatePacked)
}

// InformOrderCollected transitions Packed -> Collected. A Placed order
// cannot be collected.
func (s *Store) InformOrderCollected(ctx context.Context, orderNumber int) (bool, error) {
	return s.advance(ctx, orderNumber, engine.StateCollected)
}

func (s *Store) advance(ctx context.Context, orderNumber int, to engine.OrderState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var from engine.OrderState
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM orders WHERE number = ?`, orderNumber).Scan(&from)
	if err == sql.ErrNoRows {
		return false, engine.ErrOrderNotFound
	}
	if err != nil {
		return false, engine.Unavailable("advance order", err)
	}

	if from == to || fromIsPast(from, to) {
		return true, nil // already there or past; idempotent no-op
	}
	if !from.CanAdvanceTo(to) {
		return false, &engine.OrderStateError{OrderNumber: orderNumber, From: from, To: to}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, engine.Unavailable("advance order", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET state = ?, updated_at = ? WHERE number = ?`,
		to, now, orderNumber); err != nil {
		return false, engine.Unavailable("advance order", err)
	}
	if err := s.appendAuditTx(ctx, tx, orderNumber, from, to); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, engine.Unavailable("advance order", err)
	}
	return true, nil
}

// fromIsPast reports whether from is already beyond to in the lifecycle.
func fromIsPast(from, to engine.OrderState) bool {
	rank := map[engine.OrderState]int{
		engine.StatePlaced:    1,
		engine.StatePacked:    2,
		engine.StateCollected: 3,
	}
	return rank[from] > rank[to]
}

// GetOrderState returns the state of every known order.
func (s *Store) GetOrderState(ctx context.Context) (map[int]engine.OrderState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT number, state FROM orders`)
	if err != nil {
		return nil, engine.Unavailable("order state", err)
	}
	defer rows.Close()

	states := make(map[int]engine.OrderState)
	for rows.Next() {
		var (
			number int
			state  engine.OrderState
		)
		if err := rows.Scan(&number, &state); err != nil {
			return nil, engine.Unavailable("order state", err)
		}
		states[number] = state
	}
	return states, rows.Err()
}

// GenerateOrderReport renders the shared report text.
func (s *Store) GenerateOrderReport(ctx context.Context) (string, error) {
	states, err := s.GetOrderState(ctx)
	if err != nil {
		return "", err
	}
	return engine.RenderOrderReport(states), nil
}

// =============================================================================
// AUDIT TRAIL (engine.OrderAuditor interface)
// =============================================================================

func (s *Store) appendAuditTx(ctx context.Context, tx *sql.Tx, number int, from, to engine.OrderState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_audit (id, order_number, from_state, to_state, at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), number, from, to,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return engine.Unavailable("append audit", err)
	}
	return nil
}

// AuditTrail returns every recorded transition, oldest first.
func (s *Store) AuditTrail(ctx context.Context) ([]engine.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, from_state, to_state, at
		FROM order_audit
		ORDER BY rowid ASC`)
	if err != nil {
		return nil, engine.Unavailable("audit trail", err)
	}
	defer rows.Close()

	var entries []engine.AuditEntry
	for rows.Next() {
		var (
			entry engine.AuditEntry
			at    string
		)
		if err := rows.Scan(&entry.ID, &entry.OrderNumber, &entry.From, &entry.To, &at); err != nil {
			return nil, engine.Unavailable("audit trail", err)
		}
		entry.At, _ = time.Parse(time.RFC3339Nano, at)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (engine.Product, error) {
	var (
		p     engine.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Description, &price, &p.Quantity, &p.Category); err != nil {
		return engine.Product{}, err
	}
	p.UnitPrice = mustDecimal(price)
	return p, nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
