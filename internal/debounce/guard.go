package debounce

import (
	"sync"
	"time"

	"github.com/midgard-blog/interaction-sync/domain"
)

// DefaultCooldown is the minimum gap between two toggles of the same
// subject, matching the 1000ms click guard in the original clients.
const DefaultCooldown = time.Second

// Clock returns the current time; injectable for deterministic tests.
type Clock func() time.Time

// Guard rejects a toggle while one is already in flight for the same
// subject, or within the cooldown window of the previous acquire.
// Rejections are silent no-ops, never queued.
type Guard struct {
	mu           sync.Mutex
	now          Clock
	pending      map[domain.Subject]bool
	lastAcquired map[domain.Subject]time.Time
}

var _ domain.DebounceGuard = (*Guard)(nil)

func New() *Guard {
	return NewWithClock(time.Now)
}

func NewWithClock(now Clock) *Guard {
	return &Guard{
		now:          now,
		pending:      make(map[domain.Subject]bool),
		lastAcquired: make(map[domain.Subject]time.Time),
	}
}

// TryAcquire returns false, touching nothing, if the subject is still
// pending or its last successful acquire was less than cooldown ago.
// Otherwise it records now as the acquire time and marks the subject
// pending.
func (g *Guard) TryAcquire(subject domain.Subject, cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending[subject] {
		return false
	}
	if last, ok := g.lastAcquired[subject]; ok && g.now().Sub(last) < cooldown {
		return false
	}

	g.lastAcquired[subject] = g.now()
	g.pending[subject] = true
	return true
}

// Release clears the pending mark, regardless of how the toggle ended.
// The cooldown keeps counting from the acquire time.
func (g *Guard) Release(subject domain.Subject) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, subject)
}
