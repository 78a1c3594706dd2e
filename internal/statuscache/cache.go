package statuscache

import (
	"sync"

	"github.com/midgard-blog/interaction-sync/domain"
)

// Cache is the process-wide in-memory source of truth for interaction
// state. Entries are created lazily on first Set and never deleted;
// they live for the duration of the process.
type Cache struct {
	mu       sync.RWMutex
	entries  map[domain.Subject]domain.InteractionState
	notifier domain.Notifier
}

var _ domain.StatusCache = (*Cache)(nil)

func New(n domain.Notifier) *Cache {
	return &Cache{
		entries:  make(map[domain.Subject]domain.InteractionState),
		notifier: n,
	}
}

// Get returns the entry for subject, if one has been observed. No side
// effects.
func (c *Cache) Get(subject domain.Subject) (domain.InteractionState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[subject]
	return st, ok
}

// Set merges patch into the existing entry, creating one from the zero
// state if absent, then broadcasts the merged state. The broadcast is
// synchronous: every subscriber observes the new state before Set
// returns to the caller.
func (c *Cache) Set(subject domain.Subject, patch domain.StatePatch) domain.InteractionState {
	c.mu.Lock()
	st := c.entries[subject]
	if patch.Active != nil {
		st.Active = *patch.Active
	}
	if patch.Count != nil {
		st.Count = *patch.Count
	}
	if patch.LastConfirmedAt != nil {
		st.LastConfirmedAt = *patch.LastConfirmedAt
	}
	if patch.Pending != nil {
		st.Pending = *patch.Pending
	}
	c.entries[subject] = st
	c.mu.Unlock()

	c.notifier.Publish(subject, st)
	return st
}

func (c *Cache) IsPending(subject domain.Subject) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[subject].Pending
}
