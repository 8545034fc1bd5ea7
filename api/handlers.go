/*
handlers.go - HTTP API handlers for the inventory/order engine

PURPOSE:
  Exposes the stock ledger and order processing contracts over REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  the stores.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown product or order
  - 409: Lifecycle conflicts (collect before pack, duplicate order)
  - 503: Backing store unavailable
  - 500: Everything else

  Insufficient stock is NOT an error: a buy that loses the race returns
  200 with {"bought": false}, mirroring BuyStock's boolean contract.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - seed.go: Demo catalogue loader
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ministore/retail-engine/engine"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. Stores are taken as
// the engine contracts, so the in-memory and SQLite backends are
// interchangeable.
type Handler struct {
	Stock  engine.StockReadWriter
	Orders engine.OrderProcessing
	Admin  engine.StockAdmin
	Audit  engine.OrderAuditor
	Bus    *engine.Bus
}

// NewHandler creates a new handler over the given stores. admin, audit
// and bus are optional.
func NewHandler(stock engine.StockReadWriter, orders engine.OrderProcessing) *Handler {
	return &Handler{Stock: stock, Orders: orders}
}

// =============================================================================
// STOCK LEDGER HANDLERS
// =============================================================================

// ListProducts returns products, optionally filtered by ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = engine.CategoryAll
	}

	products, err := h.Stock.GetProductsByCategory(r.Context(), category)
	if err != nil {
		writeEngineError(w, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProduct returns a single product record.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Stock.GetDetails(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// GetProductImage returns the raw image bytes, 204 when the product has
// no image.
func (h *Handler) GetProductImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	image, err := h.Stock.GetImage(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get image", err)
		return
	}
	if image == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(image)
}

// BuyStock performs the atomic check-and-decrement.
func (h *Handler) BuyStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be a positive integer", nil)
		return
	}

	bought, err := h.Stock.BuyStock(r.Context(), id, req.Amount)
	if err != nil {
		writeEngineError(w, "Failed to buy stock", err)
		return
	}
	if bought {
		h.Bus.Publish(engine.Event{
			Type:      engine.EventStockPurchased,
			ProductID: id,
			Quantity:  req.Amount,
		})
	}
	writeJSON(w, http.StatusOK, BuyResponse{Bought: bought})
}

// AddStock increments a product's quantity (restock / compensation).
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be a positive integer", nil)
		return
	}

	if err := h.Stock.AddStock(r.Context(), id, req.Amount); err != nil {
		writeEngineError(w, "Failed to add stock", err)
		return
	}
	h.Bus.Publish(engine.Event{
		Type:      engine.EventStockRestocked,
		ProductID: id,
		Quantity:  req.Amount,
	})

	p, err := h.Stock.GetDetails(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// ModifyStock replaces a product's mutable fields.
func (h *Handler) ModifyStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ModifyProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	price, err := parsePrice(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "Quantity cannot be negative", nil)
		return
	}

	p := engine.Product{
		ID:          id,
		Description: req.Description,
		UnitPrice:   price,
		Quantity:    req.Quantity,
		Category:    req.Category,
	}
	if err := h.Stock.ModifyStock(r.Context(), p); err != nil {
		writeEngineError(w, "Failed to modify stock", err)
		return
	}
	h.Bus.Publish(engine.Event{Type: engine.EventStockModified, ProductID: id})
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// SubmitOrder persists a basket as a new Placed order. Line prices and
// descriptions are snapshotted from the ledger at submission time.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	basket := engine.NewBasket()
	basket.OrderNumber = req.OrderNumber
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "Line quantity must be positive", nil)
			return
		}
		p, err := h.Stock.GetDetails(r.Context(), line.ProductID)
		if err != nil {
			writeEngineError(w, "Unknown product "+line.ProductID, err)
			return
		}
		p.Quantity = line.Quantity
		basket.Add(p)
	}

	if err := h.Orders.NewOrder(r.Context(), basket); err != nil {
		writeEngineError(w, "Failed to submit order", err)
		return
	}
	h.Bus.Publish(engine.Event{Type: engine.EventOrderPlaced, OrderNumber: basket.OrderNumber})
	writeJSON(w, http.StatusCreated, toOrderDTO(basket))
}

// GetOrderToPack returns the oldest Placed order, 204 when none pending.
func (h *Handler) GetOrderToPack(w http.ResponseWriter, r *http.Request) {
	basket, err := h.Orders.GetOrderToPack(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to get order to pack", err)
		return
	}
	if basket == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(basket))
}

// InformPacked transitions an order Placed -> Packed.
func (h *Handler) InformPacked(w http.ResponseWriter, r *http.Request) {
	h.inform(w, r, engine.EventOrderPacked, h.Orders.InformOrderPacked)
}

// InformCollected transitions an order Packed -> Collected.
func (h *Handler) InformCollected(w http.ResponseWriter, r *http.Request) {
	h.inform(w, r, engine.EventOrderCollected, h.Orders.InformOrderCollected)
}

func (h *Handler) inform(w http.ResponseWriter, r *http.Request, event engine.EventType,
	transition func(ctx context.Context, orderNumber int) (bool, error)) {

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order number", err)
		return
	}

	ok, err := transition(r.Context(), number)
	if err != nil {
		writeEngineError(w, "Transition failed", err)
		return
	}
	if ok {
		h.Bus.Publish(engine.Event{Type: event, OrderNumber: number})
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_number": number, "ok": ok})
}

// GetOrderStates returns the state of every known order.
func (h *Handler) GetOrderStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Orders.GetOrderState(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to get order states", err)
		return
	}

	dto := make(map[string]string, len(states))
	for number, state := range states {
		dto[strconv.Itoa(number)] = string(state)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetOrderReport returns the plain-text order report.
func (h *Handler) GetOrderReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Orders.GenerateOrderReport(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to generate report", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report))
}

// GetOrderAudit returns the lifecycle audit trail.
func (h *Handler) GetOrderAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeError(w, http.StatusNotFound, "Audit trail not available", nil)
		return
	}
	entries, err := h.Audit.AuditTrail(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to get audit trail", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, errNegativePrice
	}
	return price, nil
}

var errNegativePrice = errors.New("unit price cannot be negative")

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
