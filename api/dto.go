/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/ministore/retail-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProductDTO represents a stock-list entry in API responses.
type ProductDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category"`
}

func toProductDTO(p engine.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Description: p.Description,
		UnitPrice:   p.UnitPrice.StringFixed(2),
		Quantity:    p.Quantity,
		Category:    p.Category,
	}
}

// AmountRequest carries a quantity for buy/restock operations.
type AmountRequest struct {
	Amount int `json:"amount"`
}

// BuyResponse reports the outcome of an atomic buy.
type BuyResponse struct {
	Bought bool `json:"bought"`
}

// ModifyProductRequest replaces a product's mutable fields.
type ModifyProductRequest struct {
	Description string `json:"description"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category"`
}

// OrderLineRequest is one basket line in a submitted order. Price and
// description are snapshotted server-side from the ledger.
type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SubmitOrderRequest submits a basket as a new order.
type SubmitOrderRequest struct {
	OrderNumber int                `json:"order_number,omitempty"`
	Lines       []OrderLineRequest `json:"lines"`
}

// OrderDTO represents an order's basket in API responses.
type OrderDTO struct {
	OrderNumber int          `json:"order_number"`
	Lines       []ProductDTO `json:"lines"`
	Total       string       `json:"total"`
}

func toOrderDTO(b *engine.Basket) OrderDTO {
	dto := OrderDTO{
		OrderNumber: b.OrderNumber,
		Lines:       make([]ProductDTO, len(b.Lines)),
		Total:       b.Total().StringFixed(2),
	}
	for i, line := range b.Lines {
		dto.Lines[i] = toProductDTO(line)
	}
	return dto
}

// AuditEntryDTO is one lifecycle transition in the audit trail.
type AuditEntryDTO struct {
	ID          string `json:"id"`
	OrderNumber int    `json:"order_number"`
	From        string `json:"from,omitempty"`
	To          string `json:"to"`
	At          string `json:"at"`
}

func toAuditEntryDTO(e engine.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:          e.ID,
		OrderNumber: e.OrderNumber,
		From:        string(e.From),
		To:          string(e.To),
		At:          e.At.Format(time.RFC3339Nano),
	}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
