package workers_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midgard-blog/interaction-sync/domain"
	"github.com/midgard-blog/interaction-sync/internal/workers"
)

type fakeGateway struct {
	mu         sync.Mutex
	statsCalls map[string]int
	followers  map[string]int64
	err        error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statsCalls: make(map[string]int),
		followers:  make(map[string]int64),
	}
}

func (g *fakeGateway) GetFollowStats(_ context.Context, userID string) (domain.FollowStats, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return domain.FollowStats{}, g.err
	}
	g.statsCalls[userID]++
	return domain.FollowStats{UserID: userID, Followers: g.followers[userID]}, nil
}

func (g *fakeGateway) calls(userID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statsCalls[userID]
}

func (g *fakeGateway) setFollowers(userID string, n int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followers[userID] = n
}

func (g *fakeGateway) CheckFollowStatus(context.Context, string) (bool, error) { return false, nil }
func (g *fakeGateway) FollowUser(context.Context, string) (domain.CallResult, error) {
	return domain.CallResult{Success: true}, nil
}
func (g *fakeGateway) UnfollowUser(context.Context, string) (domain.CallResult, error) {
	return domain.CallResult{Success: true}, nil
}
func (g *fakeGateway) LikePost(context.Context, string) (domain.CallResult, error) {
	return domain.CallResult{Success: true}, nil
}
func (g *fakeGateway) UnlikePost(context.Context, string) (domain.CallResult, error) {
	return domain.CallResult{Success: true}, nil
}
func (g *fakeGateway) LikeComment(context.Context, string) (domain.CallResult, error) {
	return domain.CallResult{Success: true}, nil
}
func (g *fakeGateway) UnlikeComment(context.Context, string) (domain.CallResult, error) {
	return domain.CallResult{Success: true}, nil
}

func TestGetFetchesOnFirstUseThenServesCached(t *testing.T) {
	gw := newFakeGateway()
	gw.setFollowers("u1", 10)
	refresher := workers.NewStatsRefresher(gw, time.Second)

	stats, err := refresher.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, stats.Followers)

	// second read is served from the warm cache
	gw.setFollowers("u1", 99)
	stats, err = refresher.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, stats.Followers)
	assert.Equal(t, 1, gw.calls("u1"))
}

func TestGetEmptyUserID(t *testing.T) {
	refresher := workers.NewStatsRefresher(newFakeGateway(), time.Second)

	_, err := refresher.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSubject)
}

func TestGetPropagatesGatewayError(t *testing.T) {
	gw := newFakeGateway()
	gw.err = errors.New("down")
	refresher := workers.NewStatsRefresher(gw, time.Second)

	_, err := refresher.Get(context.Background(), "u1")
	assert.Error(t, err)
}

func TestNotifyCoalescesAndRefreshes(t *testing.T) {
	gw := newFakeGateway()
	gw.setFollowers("u1", 3)
	refresher := workers.NewStatsRefresher(gw, 20*time.Millisecond)

	var updates atomic.Int64
	refresher.OnUpdate = func(stats domain.FollowStats) {
		assert.Equal(t, "u1", stats.UserID)
		updates.Add(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Start(ctx)

	// repeated notifications inside one settle window collapse into a
	// single fetch
	refresher.Notify("u1")
	refresher.Notify("u1")
	refresher.Notify("u1")

	require.Eventually(t, func() bool {
		return updates.Load() >= 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, gw.calls("u1"))

	stats, err := refresher.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Followers)
	assert.Equal(t, 1, gw.calls("u1"), "Get serves the refreshed value")
}

func TestRefreshUpdatesStaleCounters(t *testing.T) {
	gw := newFakeGateway()
	gw.setFollowers("u2", 5)
	refresher := workers.NewStatsRefresher(gw, 20*time.Millisecond)

	_, err := refresher.Get(context.Background(), "u2")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Start(ctx)

	gw.setFollowers("u2", 6)
	refresher.Notify("u2")

	require.Eventually(t, func() bool {
		stats, err := refresher.Get(context.Background(), "u2")
		return err == nil && stats.Followers == 6
	}, time.Second, 5*time.Millisecond)
}
