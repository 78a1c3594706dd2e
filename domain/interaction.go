package domain

import (
	"context"
	"time"
)

// InteractionState is the cached truth for one subject.
type InteractionState struct {
	Active          bool      // is following / is liked
	Count           int64     // like count; always 0 for Follow subjects
	LastConfirmedAt time.Time // last server-confirmed value
	Pending         bool      // a toggle request is in flight
}

// StatePatch is a partial InteractionState. Nil fields are left
// untouched by StatusCache.Set.
type StatePatch struct {
	Active          *bool
	Count           *int64
	LastConfirmedAt *time.Time
	Pending         *bool
}

// FullPatch converts a complete state into a patch that overwrites
// every field, used for rollbacks and snapshot restores.
func FullPatch(st InteractionState) StatePatch {
	return StatePatch{
		Active:          &st.Active,
		Count:           &st.Count,
		LastConfirmedAt: &st.LastConfirmedAt,
		Pending:         &st.Pending,
	}
}

func BoolPtr(b bool) *bool           { return &b }
func Int64Ptr(v int64) *int64        { return &v }
func TimePtr(t time.Time) *time.Time { return &t }

// ToggleResult reports how a toggle attempt ended.
type ToggleResult struct {
	Subject  Subject
	Active   bool
	Count    int64
	Reverted bool // the optimistic update was rolled back
	Skipped  bool // rejected by the debounce guard, nothing happened
}

// CallResult is the outcome of one remote gateway call. Any
// Success != true is a failure regardless of HTTP status detail.
type CallResult struct {
	Success bool
	// ConfirmedActive carries the server-authoritative value when the
	// endpoint returns one; it may differ from the optimistic flip
	// (e.g. server-side "already following" dedup).
	ConfirmedActive *bool
	Err             string
}

// RemoteCall performs the gateway call appropriate to a subject's
// kind, toggling towards nextActive.
type RemoteCall func(ctx context.Context, nextActive bool) (CallResult, error)

// StatusCache is the single source of truth mapping subjects to their
// last-known interaction state. Set merges the patch into the existing
// entry (creating one lazily) and broadcasts the merged state on the
// Notifier before returning.
type StatusCache interface {
	Get(subject Subject) (InteractionState, bool)
	Set(subject Subject, patch StatePatch) InteractionState
	IsPending(subject Subject) bool
}

// EventHandler receives the full state of a subject whenever it changes.
type EventHandler func(subject Subject, state InteractionState)

// Notifier is the process-wide publish/subscribe channel keeping every
// component that displays a subject's state consistent. Delivery is
// synchronous, on the publishing goroutine, in subscription order.
type Notifier interface {
	Subscribe(subject Subject, fn EventHandler) (unsubscribe func())
	SubscribeAll(fn EventHandler) (unsubscribe func())
	Publish(subject Subject, state InteractionState)
}

// DebounceGuard serializes toggles per subject: at most one in flight,
// and a cooldown between successful acquires.
type DebounceGuard interface {
	TryAcquire(subject Subject, cooldown time.Duration) bool
	Release(subject Subject)
}

// InteractionUsecase is the optimistic toggle controller plus the
// read side used by status endpoints.
type InteractionUsecase interface {
	// Toggle flips the subject's state optimistically, performs the
	// remote call and reconciles. A guard rejection returns the current
	// state with Skipped set and a nil error.
	Toggle(ctx context.Context, subject Subject, call RemoteCall) (ToggleResult, error)

	// Status returns the cached state, loading it through the
	// StatusRepository on first observation.
	Status(ctx context.Context, subject Subject) (InteractionState, error)

	// Observe seeds a subject's state from a value the caller already
	// holds (a server-rendered page, for instance). An existing entry
	// wins over the seed.
	Observe(ctx context.Context, subject Subject, active bool, count int64) (InteractionState, error)
}

// StatusRepository coordinates the in-memory cache, the optional
// snapshot store and the remote gateway for status reads.
type StatusRepository interface {
	// Load resolves a subject's state on a cache miss, deduplicating
	// concurrent loads of the same subject, and seeds the cache.
	Load(ctx context.Context, subject Subject) (InteractionState, error)

	// SaveConfirmed persists a server-confirmed state to the snapshot
	// store, best effort. Optimistic states must never reach it.
	SaveConfirmed(subject Subject, state InteractionState)
}

// SnapshotStore persists confirmed states across restarts. Get returns
// ErrCacheMiss when no snapshot exists for the subject.
type SnapshotStore interface {
	Get(ctx context.Context, subject Subject) (InteractionState, error)
	Set(ctx context.Context, subject Subject, state InteractionState) error
}
