/*
events.go - Notification fan-out for station displays

PURPOSE:
  Every station operation returns a Result to its caller; the Bus is a
  pure notification fan-out on top of that for any number of listeners
  (displays, logs, dashboards). It carries no business state and no
  operation depends on it being consumed.

DELIVERY:
  Best-effort. A subscriber with a full buffer misses the event rather
  than blocking a station. Subscribers unsubscribe by calling the
  returned cancel function.

SEE ALSO:
  - types.go: Result, the primary outcome value
*/
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EVENTS
// =============================================================================

type EventType string

const (
	EventStockPurchased EventType = "stock_purchased"
	EventStockRestocked EventType = "stock_restocked"
	EventStockModified  EventType = "stock_modified"
	EventOrderPlaced    EventType = "order_placed"
	EventOrderPacked    EventType = "order_packed"
	EventOrderCollected EventType = "order_collected"
)

// Event is a notification of something a station did. Purely
// informational; all state lives in the stores.
type Event struct {
	ID          string
	Type        EventType
	ProductID   string
	OrderNumber int
	Quantity    int
	Message     string
	At          time.Time
}

// =============================================================================
// BUS
// =============================================================================

// Bus is a broadcast registry of event subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener with the given buffer size and returns
// its channel plus a cancel function. Cancel is safe to call more than
// once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish broadcasts the event to every subscriber. Subscribers that
// cannot keep up are skipped, never waited on. Fills in ID and At when
// unset. Nil-safe so stations can run without a bus.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close drops and closes every subscription. Further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
