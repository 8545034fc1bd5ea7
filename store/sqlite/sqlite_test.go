package sqlite_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ministore/retail-engine/engine"
	"github.com/ministore/retail-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	products := []engine.Product{
		{ID: "TEST1", Description: "Test Product", UnitPrice: dec("10.00"), Quantity: 5, Category: "Test"},
		{ID: "0001", Description: "40 inch LED HD TV", UnitPrice: dec("269.00"), Quantity: 90, Category: "Electronics"},
	}
	for _, p := range products {
		require.NoError(t, store.SaveProduct(ctx, p))
	}
	return store
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func placeOrder(t *testing.T, store *sqlite.Store, number int) {
	t.Helper()
	b := engine.NewBasket()
	b.OrderNumber = number
	b.Add(engine.Product{ID: "TEST1", Description: "Test Product", UnitPrice: dec("10.00"), Quantity: 1})
	require.NoError(t, store.NewOrder(context.Background(), b))
}

// =============================================================================
// STOCK LEDGER
// =============================================================================

func TestSQLite_ExistsAndDetails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "TEST1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := store.GetDetails(ctx, "TEST1")
	require.NoError(t, err)
	assert.Equal(t, "Test Product", p.Description)
	assert.Equal(t, "10.00", p.UnitPrice.StringFixed(2))
	assert.Equal(t, 5, p.Quantity)

	_, err = store.GetDetails(ctx, "NOPE")
	assert.ErrorIs(t, err, engine.ErrProductNotFound)
}

func TestSQLite_GetProductsByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	all, err := store.GetProductsByCategory(ctx, engine.CategoryAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "0001", all[0].ID, "ordered by id")

	electronics, err := store.GetProductsByCategory(ctx, "electronics")
	require.NoError(t, err)
	require.Len(t, electronics, 1, "case-insensitive match")

	none, err := store.GetProductsByCategory(ctx, "Garden")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_Images(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	img, err := store.GetImage(ctx, "TEST1")
	require.NoError(t, err)
	assert.Nil(t, img)

	require.NoError(t, store.SaveImage(ctx, "TEST1", []byte{0x89, 0x50}))
	img, err = store.GetImage(ctx, "TEST1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, img)

	assert.ErrorIs(t, store.SaveImage(ctx, "NOPE", nil), engine.ErrProductNotFound)
	_, err = store.GetImage(ctx, "NOPE")
	assert.ErrorIs(t, err, engine.ErrProductNotFound)
}

func TestSQLite_BuyStock_Atomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bought, err := store.BuyStock(ctx, "TEST1", 5)
	require.NoError(t, err)
	assert.True(t, bought)

	bought, err = store.BuyStock(ctx, "TEST1", 5)
	require.NoError(t, err)
	assert.False(t, bought, "second buy of exhausted stock returns false")

	p, _ := store.GetDetails(ctx, "TEST1")
	assert.Equal(t, 0, p.Quantity)

	bought, err = store.BuyStock(ctx, "NOPE", 1)
	require.NoError(t, err)
	assert.False(t, bought)
}

func TestSQLite_AddAndModifyStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddStock(ctx, "TEST1", 3))
	p, _ := store.GetDetails(ctx, "TEST1")
	assert.Equal(t, 8, p.Quantity)

	assert.ErrorIs(t, store.AddStock(ctx, "NOPE", 1), engine.ErrProductNotFound)

	require.NoError(t, store.ModifyStock(ctx, engine.Product{
		ID: "TEST1", Description: "Renamed", UnitPrice: dec("12.50"),
		Quantity: 2, Category: "Clearance",
	}))
	p, _ = store.GetDetails(ctx, "TEST1")
	assert.Equal(t, "Renamed", p.Description)
	assert.Equal(t, "12.50", p.UnitPrice.StringFixed(2))
	assert.Equal(t, 2, p.Quantity)
	assert.Equal(t, "Clearance", p.Category)

	assert.ErrorIs(t, store.ModifyStock(ctx, engine.Product{ID: "NOPE"}), engine.ErrProductNotFound)
}

func TestSQLite_ConcurrentBuys_NeverOversell(t *testing.T) {
	// GIVEN: 90 units and 120 concurrent single-unit buys
	// THEN: Exactly 90 succeed; the quantity ends at 0, never negative

	store := newTestStore(t)
	ctx := context.Background()

	const buyers = 120
	results := make(chan bool, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bought, err := store.BuyStock(ctx, "0001", 1)
			assert.NoError(t, err)
			results <- bought
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for bought := range results {
		if bought {
			succeeded++
		}
	}
	assert.Equal(t, 90, succeeded)

	p, _ := store.GetDetails(ctx, "0001")
	assert.Equal(t, 0, p.Quantity)
}

// =============================================================================
// ORDER PROCESSING
// =============================================================================

func TestSQLite_UniqueNumber_MonotonicAndDistinct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 50
	numbers := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := store.UniqueNumber(ctx)
			assert.NoError(t, err)
			numbers <- num
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	for num := range numbers {
		assert.False(t, seen[num], "number %d issued twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestSQLite_NewOrder_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := engine.NewBasket()
	b.OrderNumber = 1
	b.Add(engine.Product{ID: "TEST1", Description: "Test Product", UnitPrice: dec("10.00"), Quantity: 2})
	b.Add(engine.Product{ID: "0001", Description: "40 inch LED HD TV", UnitPrice: dec("269.00"), Quantity: 1})
	require.NoError(t, store.NewOrder(ctx, b))

	loaded, err := store.GetOrderToPack(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.OrderNumber)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, "TEST1", loaded.Lines[0].ID, "line order preserved")
	assert.Equal(t, 2, loaded.Lines[0].Quantity)
	assert.Equal(t, "289.00", loaded.Total().StringFixed(2))
}

func TestSQLite_NewOrder_EmptyAndDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.NewOrder(ctx, engine.NewBasket()), engine.ErrEmptyBasket)

	placeOrder(t, store, 7)

	dup := engine.NewBasket()
	dup.OrderNumber = 7
	dup.Add(engine.Product{ID: "TEST1", UnitPrice: dec("10.00"), Quantity: 1})
	assert.ErrorIs(t, store.NewOrder(ctx, dup), engine.ErrDuplicateOrder)
}

func TestSQLite_Lifecycle_OrderingAndIdempotency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	placeOrder(t, store, 1)

	// Collect before pack fails hard.
	_, err := store.InformOrderCollected(ctx, 1)
	assert.ErrorIs(t, err, engine.ErrInvalidOrderState)

	ok, err := store.InformOrderPacked(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.InformOrderPacked(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok, "repacking is idempotent")

	ok, err = store.InformOrderCollected(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// Packed on a collected order: already past, no-op success.
	ok, err = store.InformOrderPacked(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	trail, err := store.AuditTrail(ctx)
	require.NoError(t, err)
	require.Len(t, trail, 3, "placed, packed, collected - exactly once each")
	assert.Equal(t, engine.StatePlaced, trail[0].To)
	assert.Equal(t, engine.StatePacked, trail[1].To)
	assert.Equal(t, engine.StateCollected, trail[2].To)

	_, err = store.InformOrderPacked(ctx, 99)
	assert.ErrorIs(t, err, engine.ErrOrderNotFound)
}

func TestSQLite_StatesAndReport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	placeOrder(t, store, 1)
	placeOrder(t, store, 2)
	_, err := store.InformOrderPacked(ctx, 1)
	require.NoError(t, err)

	states, err := store.GetOrderState(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.StatePacked, states[1])
	assert.Equal(t, engine.StatePlaced, states[2])

	report, err := store.GenerateOrderReport(ctx)
	require.NoError(t, err)
	assert.Contains(t, report, "placed:    2")
	assert.Contains(t, report, "packed:    1")
}

func TestSQLite_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	placeOrder(t, store, 1)
	require.NoError(t, store.Reset(ctx))

	ok, err := store.Exists(ctx, "TEST1")
	require.NoError(t, err)
	assert.False(t, ok)

	states, err := store.GetOrderState(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	num, err := store.UniqueNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, num, "counter restarts after reset")
}
