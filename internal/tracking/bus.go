package tracking

import (
	"sync"

	"github.com/t3track/t3agent/internal/logging"
)

const defaultSubscriberBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	logger logging.Logger
}

// Subscription is a receive channel scoped to one consumer.
type Subscription struct {
	id    uint64
	bus   *Bus
	ch    chan Event
	kinds map[EventKind]bool
	once  sync.Once
}

func NewBus(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bus{subs: make(map[uint64]*Subscription), logger: logger}
}

// Subscribe registers a consumer for the given kinds, or for all kinds
// when none are given. buffer <= 0 uses a default size.
func (b *Bus) Subscribe(buffer int, kinds ...EventKind) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}

	sub := &Subscription{bus: b, ch: make(chan Event, buffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

// C is closed once the subscription ends.
func (s *Subscription) C() <-chan Event { return s.ch }

// Unsubscribe detaches the consumer and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.subs, s.id)
	s.once.Do(func() { close(s.ch) })
}

func (s *Subscription) wants(kind EventKind) bool {
	return s.kinds == nil || s.kinds[kind]
}

// Publish delivers ev to every interested subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, sub := range b.subs {
		if !sub.wants(ev.Kind) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber", "subscriber", id, "kind", ev.Kind)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.once.Do(func() { close(sub.ch) })
		delete(b.subs, id)
	}
}
