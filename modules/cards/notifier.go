package cards

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Notifier is the registry of "cards changed" listeners. Notifications
// carry no payload: a listener that needs fresh data re-queries.
type Notifier struct {
	mu        sync.Mutex
	listeners []listener
}

type listener struct {
	id uuid.UUID
	fn func()
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id       uuid.UUID
	notifier *Notifier
	once     sync.Once
}

// NewNotifier returns an empty registry.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn. Each call creates a separate registration; keep
// the handle to remove it.
func (n *Notifier) Subscribe(fn func()) *Subscription {
	sub := &Subscription{id: uuid.New(), notifier: n}
	n.mu.Lock()
	n.listeners = append(n.listeners, listener{id: sub.id, fn: fn})
	n.mu.Unlock()
	return sub
}

// Unsubscribe removes the registration. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.notifier.remove(s.id)
	})
}

func (n *Notifier) remove(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, l := range n.listeners {
		if l.id == id {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return
		}
	}
}

// Len is the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// Broadcast calls every listener once, synchronously and in registration
// order. The registry lock is not held during the calls, so a listener may
// subscribe, unsubscribe or call back into the service.
func (n *Notifier) Broadcast() {
	n.mu.Lock()
	snapshot := make([]listener, len(n.listeners))
	copy(snapshot, n.listeners)
	n.mu.Unlock()

	for _, l := range snapshot {
		n.call(l)
	}
}

func (n *Notifier) call(l listener) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("listener", l.id.String()).Errorf("cards listener panicked: %v", r)
		}
	}()
	l.fn()
}
