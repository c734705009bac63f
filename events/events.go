package events

import (
	"context"
	"sync"

	"aurex/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents the kinds of events the core emits
type EventType string

const (
	EventTypeBalanceChanged EventType = "balance_changed"
	EventTypeRoomUpdated    EventType = "room_updated"
	EventTypeRoomSettled    EventType = "room_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangedEvent is emitted after a ledger movement commits
type BalanceChangedEvent struct {
	UserID     string
	MovementID int64
	Direction  models.MovementDirection
	Amount     int64
	NewBalance int64
	Reference  string
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// RoomUpdatedEvent carries a room-state snapshot after a join, leave or
// status change commits
type RoomUpdatedEvent struct {
	Snapshot models.RoomSnapshot
}

func (e RoomUpdatedEvent) Type() EventType {
	return EventTypeRoomUpdated
}

// RoomSettledEvent is emitted once per room, after the terminal status flip
type RoomSettledEvent struct {
	RoomID       int64
	SettledCount int
}

func (e RoomSettledEvent) Type() EventType {
	return EventTypeRoomSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. Handlers run on their own
// goroutines so emitting never blocks the caller.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers asynchronously
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus buffers events raised inside a unit of work. Flush hands
// them to the underlying bus after a successful commit; Discard drops them on
// rollback. Nothing published here can block or fail the transactional path.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a buffered bus on top of the real one
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until the owning transaction commits
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful DB commit.
// Events are emitted on a background context so they outlive the request.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
