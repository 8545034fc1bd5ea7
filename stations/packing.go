package stations

import (
	"context"
	"fmt"

	"github.com/ministore/retail-engine/engine"
)

// =============================================================================
// PACKING STATION
// =============================================================================

// Packer is the packing station. It polls for the next Placed order,
// displays it, and marks it packed once the operator confirms.
type Packer struct {
	orders engine.OrderProcessing
	bus    *engine.Bus

	current *engine.Basket
}

// NewPacker creates a packing station against the shared order store.
// bus may be nil.
func NewPacker(orders engine.OrderProcessing, bus *engine.Bus) *Packer {
	return &Packer{orders: orders, bus: bus}
}

// Current returns the order being packed, or nil.
func (p *Packer) Current() *engine.Basket { return p.current }

// Poll fetches the next pending order. Polling does not claim the
// order: its state stays Placed until ConfirmPacked.
func (p *Packer) Poll(ctx context.Context) engine.Result {
	basket, err := p.orders.GetOrderToPack(ctx)
	if err != nil {
		return engine.Result{Message: "Backend unavailable", Err: err}
	}
	p.current = basket
	if basket == nil {
		return engine.Result{Message: "No orders to pack"}
	}
	return engine.Result{Message: fmt.Sprintf("Order %d to pack", basket.OrderNumber)}
}

// ConfirmPacked marks the current order packed. Confirming an order
// another station already packed is the idempotent success case.
func (p *Packer) ConfirmPacked(ctx context.Context) engine.Result {
	if p.current == nil {
		return engine.Result{Message: "No order to pack"}
	}
	number := p.current.OrderNumber

	ok, err := p.orders.InformOrderPacked(ctx, number)
	if err != nil {
		return engine.Result{Message: err.Error(), Err: err}
	}
	if !ok {
		return engine.Result{Message: fmt.Sprintf("Order %d unknown", number)}
	}

	p.current = nil
	p.bus.Publish(engine.Event{Type: engine.EventOrderPacked, OrderNumber: number})
	return engine.Result{Message: fmt.Sprintf("Order %d packed", number)}
}

// ConfirmCollected marks an order collected at the collection desk.
// Fails for orders not yet packed.
func (p *Packer) ConfirmCollected(ctx context.Context, orderNumber int) engine.Result {
	ok, err := p.orders.InformOrderCollected(ctx, orderNumber)
	if err != nil {
		return engine.Result{Message: err.Error(), Err: err}
	}
	if !ok {
		return engine.Result{Message: fmt.Sprintf("Order %d unknown", orderNumber)}
	}

	p.bus.Publish(engine.Event{Type: engine.EventOrderCollected, OrderNumber: orderNumber})
	return engine.Result{Message: fmt.Sprintf("Order %d collected", orderNumber)}
}

// Report renders the order report verbatim.
func (p *Packer) Report(ctx context.Context) (string, error) {
	return p.orders.GenerateOrderReport(ctx)
}
