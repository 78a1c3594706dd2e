package workers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/midgard-blog/interaction-sync/domain"
)

const (
	defaultSettleDelay = 2 * time.Second
	refreshConcurrency = 4
)

// statsRefresher keeps follow counters warm. Follow toggles land here
// through Notify; ids are coalesced for a settle delay so the backend
// catches up, then the counters are re-fetched in one batch. This is
// the server-side counterpart of the profile panel that re-fetched its
// follower count shortly after a follow status change.
type statsRefresher struct {
	gateway domain.InteractionGateway
	ch      chan string
	settle  time.Duration

	mu    sync.RWMutex
	stats map[string]domain.FollowStats

	// OnUpdate, when set, observes every refreshed counter set.
	OnUpdate func(stats domain.FollowStats)
}

var _ domain.StatsProvider = (*statsRefresher)(nil)

func NewStatsRefresher(gw domain.InteractionGateway, settle time.Duration) *statsRefresher {
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	return &statsRefresher{
		gateway: gw,
		ch:      make(chan string, 1024),
		settle:  settle,
		stats:   make(map[string]domain.FollowStats),
	}
}

// Notify schedules a counter refresh for userID. Never blocks.
func (s *statsRefresher) Notify(userID string) {
	select {
	case s.ch <- userID:
	default:
		logrus.Info("statsRefresher's channel is full, refresh dropped")
	}
}

// Get returns the cached counters, fetching synchronously on first use.
func (s *statsRefresher) Get(ctx context.Context, userID string) (domain.FollowStats, error) {
	if userID == "" {
		return domain.FollowStats{}, domain.ErrInvalidSubject
	}

	s.mu.RLock()
	cached, ok := s.stats[userID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	fetched, err := s.gateway.GetFollowStats(ctx, userID)
	if err != nil {
		return domain.FollowStats{}, err
	}
	s.store(fetched)
	return fetched, nil
}

func (s *statsRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(s.settle)
	defer ticker.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case userID := <-s.ch:
			pending[userID] = struct{}{}
		case <-ticker.C:
			if len(pending) > 0 {
				s.flush(ctx, pending)
				pending = make(map[string]struct{})
			}
		case <-ctx.Done():
			logrus.Info("shutting down statsRefresher, flushing remaining refreshes...")
			if len(pending) > 0 {
				s.flush(context.Background(), pending)
			}
			return
		}
	}
}

func (s *statsRefresher) flush(ctx context.Context, pending map[string]struct{}) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	for userID := range pending {
		g.Go(func() error {
			fetched, err := s.gateway.GetFollowStats(ctx, userID)
			if err != nil {
				logrus.Warnf("failed to refresh follow stats for %s: %v", userID, err)
				return nil // best effort, don't cancel siblings
			}
			s.store(fetched)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *statsRefresher) store(stats domain.FollowStats) {
	s.mu.Lock()
	s.stats[stats.UserID] = stats
	s.mu.Unlock()

	if s.OnUpdate != nil {
		s.OnUpdate(stats)
	}
}
