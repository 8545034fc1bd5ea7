// Package store provides in-memory implementations of the engine's
// storage contracts, for tests and development.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ministore/retail-engine/engine"
)

// =============================================================================
// MEMORY STOCK - In-memory stock ledger (for testing/dev)
// =============================================================================

// MemoryStock implements engine.StockReadWriter and engine.StockAdmin.
// A single RWMutex makes every mutation linearizable per the contract.
type MemoryStock struct {
	mu       sync.RWMutex
	products map[string]engine.Product
	images   map[string][]byte
}

func NewMemoryStock() *MemoryStock {
	return &MemoryStock{
		products: make(map[string]engine.Product),
		images:   make(map[string][]byte),
	}
}

func (m *MemoryStock) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.products[id]
	return ok, nil
}

func (m *MemoryStock) GetDetails(_ context.Context, id string) (engine.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return engine.Product{}, engine.ErrProductNotFound
	}
	return p, nil // map read is already a copy
}

func (m *MemoryStock) GetProductsByCategory(_ context.Context, category string) ([]engine.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []engine.Product{}
	for _, p := range m.products {
		if category == engine.CategoryAll || strings.EqualFold(p.Category, category) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStock) GetImage(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.products[id]; !ok {
		return nil, engine.ErrProductNotFound
	}
	img := m.images[id]
	if img == nil {
		return nil, nil
	}
	return append([]byte(nil), img...), nil
}

// BuyStock is the atomic check-and-decrement.
func (m *MemoryStock) BuyStock(_ context.Context, id string, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok || amount <= 0 || p.Quantity < amount {
		return false, nil
	}
	p.Quantity -= amount
	m.products[id] = p
	return true, nil
}

func (m *MemoryStock) AddStock(_ context.Context, id string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return engine.ErrProductNotFound
	}
	p.Quantity += amount
	m.products[id] = p
	return nil
}

func (m *MemoryStock) ModifyStock(_ context.Context, p engine.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		return engine.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStock) SaveProduct(_ context.Context, p engine.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStock) SaveImage(_ context.Context, id string, image []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return engine.ErrProductNotFound
	}
	m.images[id] = append([]byte(nil), image...)
	return nil
}

// =============================================================================
// MEMORY ORDERS - In-memory order store (for testing/dev)
// =============================================================================

// MemoryOrders implements engine.OrderProcessing and engine.OrderAuditor.
type MemoryOrders struct {
	mu         sync.Mutex
	nextNumber int
	orders     map[int]*engine.Order
	placed     []int // FIFO queue of Placed order numbers
	audit      []engine.AuditEntry
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{orders: make(map[int]*engine.Order)}
}

func (m *MemoryOrders) UniqueNumber(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextNumber++
	return m.nextNumber, nil
}

func (m *MemoryOrders) NewOrder(_ context.Context, basket *engine.Basket) error {
	if basket.Size() == 0 {
		return engine.ErrEmptyBasket
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	number := basket.OrderNumber
	if number == 0 {
		m.nextNumber++
		number = m.nextNumber
	} else if _, ok := m.orders[number]; ok {
		return engine.ErrDuplicateOrder
	}

	basket.OrderNumber = number
	stored := basket.Copy()
	m.orders[number] = &engine.Order{
		Number: number,
		Basket: *stored,
		State:  engine.StatePlaced,
	}
	m.placed = append(m.placed, number)
	m.auditLocked(number, "", engine.StatePlaced)
	return nil
}

func (m *MemoryOrders) GetOrderToPack(_ context.Context) (*engine.Basket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The queue may hold numbers whose order has moved on; skip them.
	for len(m.placed) > 0 {
		number := m.placed[0]
		order := m.orders[number]
		if order != nil && order.State == engine.StatePlaced {
			return order.Basket.Copy(), nil
		}
		m.placed = m.placed[1:]
	}
	return nil, nil
}

func (m *MemoryOrders) InformOrderPacked(_ context.Context, orderNumber int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return false, engine.ErrOrderNotFound
	}
	if order.State != engine.StatePlaced {
		return true, nil // already at or past Packed
	}
	order.State = engine.StatePacked
	m.auditLocked(orderNumber, engine.StatePlaced, engine.StatePacked)
	return true, nil
}

func (m *MemoryOrders) InformOrderCollected(_ context.Context, orderNumber int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return false, engine.ErrOrderNotFound
	}
	switch order.State {
	case engine.StateCollected:
		return true, nil
	case engine.StatePacked:
		order.State = engine.StateCollected
		m.auditLocked(orderNumber, engine.StatePacked, engine.StateCollected)
		return true, nil
	default:
		return false, &engine.OrderStateError{
			OrderNumber: orderNumber,
			From:        order.State,
			To:          engine.StateCollected,
		}
	}
}

func (m *MemoryOrders) GetOrderState(_ context.Context) (map[int]engine.OrderState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make(map[int]engine.OrderState, len(m.orders))
	for number, order := range m.orders {
		states[number] = order.State
	}
	return states, nil
}

func (m *MemoryOrders) GenerateOrderReport(ctx context.Context) (string, error) {
	states, err := m.GetOrderState(ctx)
	if err != nil {
		return "", err
	}
	return engine.RenderOrderReport(states), nil
}

func (m *MemoryOrders) AuditTrail(_ context.Context) ([]engine.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.AuditEntry(nil), m.audit...), nil
}

func (m *MemoryOrders) auditLocked(number int, from, to engine.OrderState) {
	m.audit = append(m.audit, engine.AuditEntry{
		ID:          uuid.NewString(),
		OrderNumber: number,
		From:        from,
		To:          to,
		At:          time.Now().UTC(),
	})
}
