package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Change describes one write to the shared persistent state.
// An empty Value means the key was deleted. Origin identifies the
// publisher so a subscriber can skip its own writes.
type Change struct {
	Key    string
	Value  string
	Origin string
}

// subscriptionBuffer bounds per-subscriber queues; a subscriber that
// falls this far behind starts losing changes rather than blocking
// every publisher.
const subscriptionBuffer = 16

// Bus fans out state changes to all subscribers in this process.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*Subscription)}
}

// Subscribe registers a new subscriber. The caller must drain C() and
// call Close when done.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		id:  uuid.NewString(),
		ch:  make(chan Change, subscriptionBuffer),
		bus: b,
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub
}

// Publish delivers a change to every subscriber. Delivery is
// non-blocking: a full subscriber queue drops the change.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub.ch <- c:
		default:
			slog.Warn("notify: dropping change for slow subscriber", "key", c.Key, "subscriber", sub.id)
		}
	}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Subscription is one subscriber's handle on the bus.
type Subscription struct {
	id   string
	ch   chan Change
	bus  *Bus
	once sync.Once
}

// ID returns the unique subscriber ID.
func (s *Subscription) ID() string { return s.id }

// Bus returns the bus this subscription belongs to.
func (s *Subscription) Bus() *Bus { return s.bus }

// C returns the delivery channel. It is closed by Close.
func (s *Subscription) C() <-chan Change { return s.ch }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s.id)
	})
}
