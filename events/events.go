// Package events provides the charge-change notification fabric.
//
// A single notification kind is dispatched synchronously to listeners
// registered against the mutated entity: by the time a mutating call
// returns, every listener has observed the new state. Delivery is
// at-most-once per committed mutation, with no batching and no history.
package events

import "github.com/mlange-42/ark/ecs"

// ChargeChanged carries the battery state at the moment of a committed
// mutation.
type ChargeChanged struct {
	Entity    ecs.Entity
	NewCharge float64
	MaxCharge float64
}

// Handler processes a single charge-change notification.
// Called synchronously during dispatch.
type Handler func(ev ChargeChanged)

// Bus dispatches charge-change notifications to registered handlers.
//
// Entity handlers fire only for their entity; global handlers fire for
// every notification. Ordering among handlers for the same entity is
// not guaranteed and must not be relied upon. Handlers must not call
// back into the mutation API for the entity being dispatched.
type Bus struct {
	entity map[ecs.Entity][]Handler
	global []Handler
}

// NewBus creates an empty notification bus.
func NewBus() *Bus {
	return &Bus{
		entity: make(map[ecs.Entity][]Handler),
	}
}

// Subscribe registers a handler for notifications about one entity.
func (b *Bus) Subscribe(e ecs.Entity, h Handler) {
	b.entity[e] = append(b.entity[e], h)
}

// SubscribeAll registers a handler for notifications about every entity.
func (b *Bus) SubscribeAll(h Handler) {
	b.global = append(b.global, h)
}

// Unsubscribe drops all handlers registered for the entity. Called on
// entity despawn; notifications for unknown entities are simply unheard.
func (b *Bus) Unsubscribe(e ecs.Entity) {
	delete(b.entity, e)
}

// Publish synchronously invokes all handlers for the notification.
func (b *Bus) Publish(ev ChargeChanged) {
	for _, h := range b.entity[ev.Entity] {
		h(ev)
	}
	for _, h := range b.global {
		h(ev)
	}
}

// HandlerCount returns the number of handlers that would observe a
// notification for the entity.
func (b *Bus) HandlerCount(e ecs.Entity) int {
	return len(b.entity[e]) + len(b.global)
}
