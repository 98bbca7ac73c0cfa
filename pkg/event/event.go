// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	WorldReset        Type = "world_reset"
	CrystalCollected  Type = "crystal_collected"
	CrystalsReleased  Type = "crystals_released"
	AsteroidCollision Type = "asteroid_collision"
	CrystalBounce     Type = "crystal_bounce"
	PlayerDestroyed   Type = "player_destroyed"
	DroneDestroyed    Type = "drone_destroyed"
	DroneModeChanged  Type = "drone_mode_changed"
	PauseToggled      Type = "pause_toggled"
)

// AllTypes lists every event type, in declaration order
var AllTypes = []Type{
	WorldReset,
	CrystalCollected,
	CrystalsReleased,
	AsteroidCollision,
	CrystalBounce,
	PlayerDestroyed,
	DroneDestroyed,
	DroneModeChanged,
	PauseToggled,
}

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:   id,
		Type: eventType,
		Cancel: func() {
			b.unsubscribe(eventType, id)
		},
	}
}

// SubscribeAll registers handler for every event type. Cancelling the
// returned subscriptions removes it again.
func (b *Bus) SubscribeAll(handler Handler) []*Subscription {
	subs := make([]*Subscription, 0, len(AllTypes))
	for _, t := range AllTypes {
		subs = append(subs, b.Subscribe(t, handler))
	}
	return subs
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			kept := make([]subscriber, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			b.handlers[eventType] = append(kept, subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// HandlerCount returns the number of handlers registered for a type
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Specific event implementations

// BodyEvent reports something that happened to one body
type BodyEvent struct {
	BaseEvent
	ID   uint64
	Kind string
}

// NewBodyEvent creates a new body event
func NewBodyEvent(eventType Type, source interface{}, id uint64, kind string) *BodyEvent {
	return &BodyEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		ID:        id,
		Kind:      kind,
	}
}

// CollisionEvent contains information about a collision between two bodies
type CollisionEvent struct {
	BaseEvent
	A uint64
	B uint64
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(eventType Type, source interface{}, a, b uint64) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		A:         a,
		B:         b,
	}
}

// ModeEvent reports a drone switching behaviour
type ModeEvent struct {
	BaseEvent
	Drone uint64
	From  string
	To    string
}

// NewModeEvent creates a new drone mode event
func NewModeEvent(source interface{}, drone uint64, from, to string) *ModeEvent {
	return &ModeEvent{
		BaseEvent: BaseEvent{EventType: DroneModeChanged, Source: source},
		Drone:     drone,
		From:      from,
		To:        to,
	}
}

// ReleaseEvent reports crystals knocked off an asteroid
type ReleaseEvent struct {
	BaseEvent
	Asteroid uint64
	Count    int
}

// NewReleaseEvent creates a new crystal release event
func NewReleaseEvent(source interface{}, asteroid uint64, count int) *ReleaseEvent {
	return &ReleaseEvent{
		BaseEvent: BaseEvent{EventType: CrystalsReleased, Source: source},
		Asteroid:  asteroid,
		Count:     count,
	}
}

// ToggleEvent reports a switch changing state
type ToggleEvent struct {
	BaseEvent
	On bool
}

// NewToggleEvent creates a new toggle event
func NewToggleEvent(eventType Type, source interface{}, on bool) *ToggleEvent {
	return &ToggleEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		On:        on,
	}
}
