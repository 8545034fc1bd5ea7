package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/ministore/retail-engine/api"
	"github.com/ministore/retail-engine/engine"
	"github.com/ministore/retail-engine/engine/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStock, *store.MemoryOrders) {
	t.Helper()
	stock := store.NewMemoryStock()
	orders := store.NewMemoryOrders()

	ctx := context.Background()
	for _, p := range []engine.Product{
		{ID: "0001", Description: "40 inch LED HD TV", UnitPrice: dec("269.00"), Quantity: 90, Category: "Electronics"},
		{ID: "0002", Description: "DAB Radio", UnitPrice: dec("29.99"), Quantity: 20, Category: "Electronics"},
	} {
		require.NoError(t, stock.SaveProduct(ctx, p))
	}

	handler := api.NewHandler(stock, orders)
	handler.Admin = stock
	handler.Audit = orders

	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, stock, orders
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// =============================================================================
// STOCK LEDGER ROUTES
// =============================================================================

func TestAPI_ListProducts(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []api.ProductDTO
	decode(t, resp, &products)
	require.Len(t, products, 2)
	assert.Equal(t, "0001", products[0].ID)
	assert.Equal(t, "269.00", products[0].UnitPrice)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/products?category=Garden", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &products)
	assert.Empty(t, products)
}

func TestAPI_GetProduct(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/products/0002", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p api.ProductDTO
	decode(t, resp, &p)
	assert.Equal(t, "DAB Radio", p.Description)
	assert.Equal(t, 20, p.Quantity)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_BuyStock(t *testing.T) {
	server, stock, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/products/0002/buy", api.AmountRequest{Amount: 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buy api.BuyResponse
	decode(t, resp, &buy)
	assert.True(t, buy.Bought)

	// Shelf is now empty: losing the race is 200 + bought:false, not an error.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/products/0002/buy", api.AmountRequest{Amount: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &buy)
	assert.False(t, buy.Bought)

	p, err := stock.GetDetails(context.Background(), "0002")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Quantity)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/products/0002/buy", api.AmountRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_AddStock(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/products/0002/stock", api.AmountRequest{Amount: 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p api.ProductDTO
	decode(t, resp, &p)
	assert.Equal(t, 25, p.Quantity, "response carries the post-restock record")

	resp = doJSON(t, http.MethodPost, server.URL+"/api/products/NOPE/stock", api.AmountRequest{Amount: 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ModifyStock(t *testing.T) {
	server, stock, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/products/0002", api.ModifyProductRequest{
		Description: "DAB+ Radio", UnitPrice: "34.99", Quantity: 12, Category: "Electronics",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p, err := stock.GetDetails(context.Background(), "0002")
	require.NoError(t, err)
	assert.Equal(t, "DAB+ Radio", p.Description)
	assert.Equal(t, "34.99", p.UnitPrice.StringFixed(2))
	assert.Equal(t, 12, p.Quantity)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/products/0002", api.ModifyProductRequest{
		Description: "Bad", UnitPrice: "-1.00", Quantity: 1, Category: "Electronics",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ProductImage(t *testing.T) {
	server, stock, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/products/0001/image", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, stock.SaveImage(context.Background(), "0001", []byte{1, 2, 3}))
	resp = doJSON(t, http.MethodGet, server.URL+"/api/products/0001/image", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// ORDER ROUTES
// =============================================================================

func submitOrder(t *testing.T, serverURL string, lines ...api.OrderLineRequest) api.OrderDTO {
	t.Helper()
	resp := doJSON(t, http.MethodPost, serverURL+"/api/orders", api.SubmitOrderRequest{Lines: lines})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order api.OrderDTO
	decode(t, resp, &order)
	return order
}

func TestAPI_SubmitOrder_SnapshotsPrices(t *testing.T) {
	server, _, _ := newTestServer(t)

	order := submitOrder(t, server.URL,
		api.OrderLineRequest{ProductID: "0001", Quantity: 1},
		api.OrderLineRequest{ProductID: "0002", Quantity: 2},
	)

	assert.Positive(t, order.OrderNumber)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "269.00", order.Lines[0].UnitPrice, "price comes from the ledger")
	assert.Equal(t, "328.98", order.Total)
}

func TestAPI_SubmitOrder_Invalid(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/orders", api.SubmitOrderRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "empty basket is a lifecycle conflict")

	resp = doJSON(t, http.MethodPost, server.URL+"/api/orders", api.SubmitOrderRequest{
		Lines: []api.OrderLineRequest{{ProductID: "NOPE", Quantity: 1}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/orders", api.SubmitOrderRequest{
		Lines: []api.OrderLineRequest{{ProductID: "0001", Quantity: 0}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_OrderLifecycle(t *testing.T) {
	server, _, _ := newTestServer(t)
	order := submitOrder(t, server.URL, api.OrderLineRequest{ProductID: "0001", Quantity: 1})
	number := order.OrderNumber
	url := server.URL + "/api/orders/" + strconv.Itoa(number)

	// Next order to pack is ours.
	resp := doJSON(t, http.MethodGet, server.URL+"/api/orders/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var next api.OrderDTO
	decode(t, resp, &next)
	assert.Equal(t, number, next.OrderNumber)

	// Collect before pack is a conflict.
	resp = doJSON(t, http.MethodPost, url+"/collected", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, url+"/packed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, url+"/collected", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Queue is drained.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/orders/next", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// States reflect the final lifecycle position.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var states map[string]string
	decode(t, resp, &states)
	assert.Equal(t, "collected", states[strconv.Itoa(number)])

	resp = doJSON(t, http.MethodPost, server.URL+"/api/orders/99/packed", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_OrderReportAndAudit(t *testing.T) {
	server, _, _ := newTestServer(t)
	order := submitOrder(t, server.URL, api.OrderLineRequest{ProductID: "0002", Quantity: 1})
	doJSON(t, http.MethodPost, server.URL+"/api/orders/"+strconv.Itoa(order.OrderNumber)+"/packed", nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/orders/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	resp = doJSON(t, http.MethodGet, server.URL+"/api/orders/audit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trail []api.AuditEntryDTO
	decode(t, resp, &trail)
	require.Len(t, trail, 2)
	assert.Equal(t, "placed", trail[0].To)
	assert.Equal(t, "packed", trail[1].To)
	assert.NotEmpty(t, trail[0].ID)
}

// =============================================================================
// ADMIN ROUTES
// =============================================================================

func TestAPI_SeedDemo(t *testing.T) {
	server, stock, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/admin/seed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products, err := stock.GetProductsByCategory(context.Background(), engine.CategoryAll)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(products), 7, "demo catalogue loaded")
}
