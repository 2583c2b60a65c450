package reporting

import (
	"sync"
	"sync/atomic"
)

// EventFilter is a function that determines if an event should be delivered
type EventFilter func(Event) bool

// FilterByType accepts events of any of the given types.
func FilterByType(types ...EventType) EventFilter {
	return func(e Event) bool {
		for _, t := range types {
			if e.Type == t {
				return true
			}
		}
		return false
	}
}

// Subscription receives published events on C until closed.
type Subscription struct {
	ID string
	C  <-chan Event

	ch      chan Event
	filter  EventFilter
	bus     *Bus
	dropped atomic.Int64
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// Dropped returns how many events this subscriber missed because its
// buffer was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// BusMetrics tracks event bus activity
type BusMetrics struct {
	ActiveSubscriptions int
	EventsPublished     int64
	EventsDelivered     int64
	EventsDropped       int64
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	closed        bool

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{subscriptions: make(map[string]*Subscription)}
}

// Publish delivers event to every matching subscriber.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	b.published.Add(1)
	for _, sub := range b.subscriptions {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.ch <- event:
			b.delivered.Add(1)
		default:
			sub.dropped.Add(1)
			b.dropped.Add(1)
		}
	}
}

// Subscribe returns a subscription with the given buffer size. A nil filter
// receives every event. Subscribing to a closed bus yields an already-closed
// subscription.
func (b *Bus) Subscribe(buffer int, filter EventFilter) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{
		ID:     NewOperationID(),
		C:      ch,
		ch:     ch,
		filter: filter,
		bus:    b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	b.subscriptions[sub.ID] = sub
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscriptions[sub.ID]; !ok {
		return
	}
	delete(b.subscriptions, sub.ID)
	close(sub.ch)
}

// Metrics returns a snapshot of bus counters.
func (b *Bus) Metrics() BusMetrics {
	b.mu.RLock()
	active := len(b.subscriptions)
	b.mu.RUnlock()
	return BusMetrics{
		ActiveSubscriptions: active,
		EventsPublished:     b.published.Load(),
		EventsDelivered:     b.delivered.Load(),
		EventsDropped:       b.dropped.Load(),
	}
}

// Close closes the bus and all subscriptions
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscriptions {
		close(sub.ch)
		delete(b.subscriptions, id)
	}
}
