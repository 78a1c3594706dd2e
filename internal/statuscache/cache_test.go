package statuscache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midgard-blog/interaction-sync/domain"
	"github.com/midgard-blog/interaction-sync/internal/notifier"
	"github.com/midgard-blog/interaction-sync/internal/statuscache"
)

func TestGetUnknownSubject(t *testing.T) {
	cache := statuscache.New(notifier.New())

	st, ok := cache.Get(domain.Subject{Kind: domain.KindFollow, ID: "u1"})
	assert.False(t, ok)
	assert.Zero(t, st)
}

func TestSetCreatesLazilyAndMerges(t *testing.T) {
	cache := statuscache.New(notifier.New())
	subject := domain.Subject{Kind: domain.KindPostLike, ID: "p1"}

	st := cache.Set(subject, domain.StatePatch{
		Active: domain.BoolPtr(true),
		Count:  domain.Int64Ptr(6),
	})
	assert.True(t, st.Active)
	assert.EqualValues(t, 6, st.Count)
	assert.False(t, st.Pending)

	// partial patch leaves untouched fields alone
	st = cache.Set(subject, domain.StatePatch{Pending: domain.BoolPtr(true)})
	assert.True(t, st.Active)
	assert.EqualValues(t, 6, st.Count)
	assert.True(t, st.Pending)

	got, ok := cache.Get(subject)
	require.True(t, ok)
	assert.Equal(t, st, got)
}

func TestSetBroadcastsMergedState(t *testing.T) {
	hub := notifier.New()
	cache := statuscache.New(hub)
	subject := domain.Subject{Kind: domain.KindCommentLike, ID: "c1"}

	var events []domain.InteractionState
	hub.Subscribe(subject, func(_ domain.Subject, st domain.InteractionState) {
		events = append(events, st)
	})

	cache.Set(subject, domain.StatePatch{Active: domain.BoolPtr(true), Count: domain.Int64Ptr(1)})
	cache.Set(subject, domain.StatePatch{Pending: domain.BoolPtr(true)})

	// exactly one broadcast per Set, each carrying the merged state,
	// observed before Set returned
	require.Len(t, events, 2)
	assert.True(t, events[0].Active)
	assert.EqualValues(t, 1, events[0].Count)
	assert.False(t, events[0].Pending)
	assert.True(t, events[1].Active)
	assert.EqualValues(t, 1, events[1].Count)
	assert.True(t, events[1].Pending)
}

func TestIsPending(t *testing.T) {
	cache := statuscache.New(notifier.New())
	subject := domain.Subject{Kind: domain.KindFollow, ID: "u7"}

	assert.False(t, cache.IsPending(subject))

	cache.Set(subject, domain.StatePatch{Pending: domain.BoolPtr(true)})
	assert.True(t, cache.IsPending(subject))

	cache.Set(subject, domain.StatePatch{Pending: domain.BoolPtr(false)})
	assert.False(t, cache.IsPending(subject))
}

func TestLastConfirmedAtPatch(t *testing.T) {
	cache := statuscache.New(notifier.New())
	subject := domain.Subject{Kind: domain.KindFollow, ID: "u8"}

	confirmed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := cache.Set(subject, domain.StatePatch{
		Active:          domain.BoolPtr(true),
		LastConfirmedAt: domain.TimePtr(confirmed),
	})
	assert.Equal(t, confirmed, st.LastConfirmedAt)
}
