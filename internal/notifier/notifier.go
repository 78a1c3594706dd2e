package notifier

import (
	"sync"

	"github.com/midgard-blog/interaction-sync/domain"
)

type subscriber struct {
	id uint64
	fn domain.EventHandler
}

// Notifier is an observer-list publish/subscribe hub. Delivery happens
// on the publishing goroutine, in subscription order, per-subject
// subscribers first and wildcard subscribers after them.
type Notifier struct {
	mu        sync.RWMutex
	nextID    uint64
	bySubject map[domain.Subject][]subscriber
	wildcard  []subscriber
}

var _ domain.Notifier = (*Notifier)(nil)

func New() *Notifier {
	return &Notifier{
		bySubject: make(map[domain.Subject][]subscriber),
	}
}

// Subscribe registers fn for one exact subject. The returned function
// removes the subscription and is safe to call more than once.
func (n *Notifier) Subscribe(subject domain.Subject, fn domain.EventHandler) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.bySubject[subject] = append(n.bySubject[subject], subscriber{id: id, fn: fn})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.bySubject[subject]
		for i := range subs {
			if subs[i].id == id {
				n.bySubject[subject] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(n.bySubject[subject]) == 0 {
			delete(n.bySubject, subject)
		}
	}
}

// SubscribeAll registers fn for every subject. Used by aggregating
// consumers such as the follow-stats refresher and the event stream.
func (n *Notifier) SubscribeAll(fn domain.EventHandler) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.wildcard = append(n.wildcard, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i := range n.wildcard {
			if n.wildcard[i].id == id {
				n.wildcard = append(n.wildcard[:i:i], n.wildcard[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers state to all current subscribers synchronously.
// The subscriber list is snapshotted first, so a callback that
// unsubscribes mid-broadcast still receives this event; delivery is
// best effort, not guaranteed.
func (n *Notifier) Publish(subject domain.Subject, state domain.InteractionState) {
	n.mu.RLock()
	subs := make([]subscriber, 0, len(n.bySubject[subject])+len(n.wildcard))
	subs = append(subs, n.bySubject[subject]...)
	subs = append(subs, n.wildcard...)
	n.mu.RUnlock()

	for i := range subs {
		subs[i].fn(subject, state)
	}
}
