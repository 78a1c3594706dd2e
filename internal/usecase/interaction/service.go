package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/midgard-blog/interaction-sync/domain"
	"github.com/midgard-blog/interaction-sync/internal/debounce"
)

// Service orchestrates a single toggle attempt end-to-end: guard,
// optimistic cache update, remote call, commit or rollback. Toggles on
// different subjects run independently; the guard serializes toggles
// on the same subject.
type Service struct {
	cache      domain.StatusCache
	guard      domain.DebounceGuard
	statusRepo domain.StatusRepository
	cooldown   time.Duration
	now        func() time.Time
}

var _ domain.InteractionUsecase = (*Service)(nil)

// NewService will create a new interaction service object.
// A non-positive cooldown falls back to debounce.DefaultCooldown.
func NewService(cache domain.StatusCache, guard domain.DebounceGuard, repo domain.StatusRepository, cooldown time.Duration) *Service {
	if cooldown <= 0 {
		cooldown = debounce.DefaultCooldown
	}
	return &Service{
		cache:      cache,
		guard:      guard,
		statusRepo: repo,
		cooldown:   cooldown,
		now:        time.Now,
	}
}

func (s *Service) Toggle(ctx context.Context, subject domain.Subject, call domain.RemoteCall) (domain.ToggleResult, error) {
	if err := subject.Validate(); err != nil {
		return domain.ToggleResult{}, err
	}

	if !s.guard.TryAcquire(subject, s.cooldown) {
		// Silent no-op: a toggle is in flight or the cooldown has not
		// elapsed. The gateway is never contacted.
		cur, _ := s.cache.Get(subject)
		logrus.Debugf("toggle skipped for %s: guarded", subject)
		return domain.ToggleResult{
			Subject: subject,
			Active:  cur.Active,
			Count:   cur.Count,
			Skipped: true,
		}, nil
	}
	defer s.guard.Release(subject)

	// prev is the last confirmed snapshot; the guard guarantees no
	// other toggle can move it while this attempt runs. Rollback
	// restores exactly this value, never a stale captured one.
	prev, _ := s.cache.Get(subject)

	nextActive := !prev.Active
	nextCount := prev.Count
	if subject.Kind.Counted() {
		if nextActive {
			nextCount++
		} else if nextCount > 0 {
			nextCount--
		}
	}

	// Optimistic update, visible to every subscriber before the
	// network call is even issued.
	s.cache.Set(subject, domain.StatePatch{
		Active:  &nextActive,
		Count:   &nextCount,
		Pending: domain.BoolPtr(true),
	})

	res, err := call(ctx, nextActive)
	if err != nil || !res.Success {
		rollback := prev
		rollback.Pending = false
		s.cache.Set(subject, domain.FullPatch(rollback))
		if err == nil {
			err = fmt.Errorf("%w: %s", domain.ErrGatewayFailure, res.Err)
		}
		logrus.Warnf("toggle reverted for %s: %v", subject, err)
		return domain.ToggleResult{
			Subject:  subject,
			Active:   rollback.Active,
			Count:    rollback.Count,
			Reverted: true,
		}, err
	}

	finalActive := nextActive
	finalCount := nextCount
	if res.ConfirmedActive != nil && *res.ConfirmedActive != nextActive {
		// The server disagreed with the optimistic flip, e.g. it had
		// already recorded the relationship. Its value wins, and the
		// count delta is undone with it.
		finalActive = *res.ConfirmedActive
		finalCount = prev.Count
	}

	confirmed := s.cache.Set(subject, domain.StatePatch{
		Active:          &finalActive,
		Count:           &finalCount,
		LastConfirmedAt: domain.TimePtr(s.now()),
		Pending:         domain.BoolPtr(false),
	})
	s.statusRepo.SaveConfirmed(subject, confirmed)

	return domain.ToggleResult{
		Subject: subject,
		Active:  finalActive,
		Count:   finalCount,
	}, nil
}

func (s *Service) Status(ctx context.Context, subject domain.Subject) (domain.InteractionState, error) {
	if err := subject.Validate(); err != nil {
		return domain.InteractionState{}, err
	}
	if st, ok := s.cache.Get(subject); ok {
		return st, nil
	}
	return s.statusRepo.Load(ctx, subject)
}

func (s *Service) Observe(ctx context.Context, subject domain.Subject, active bool, count int64) (domain.InteractionState, error) {
	if err := subject.Validate(); err != nil {
		return domain.InteractionState{}, err
	}
	// First observation wins only when nothing is cached yet; a
	// seeded value must never clobber fresher local state.
	if st, ok := s.cache.Get(subject); ok {
		return st, nil
	}
	if !subject.Kind.Counted() {
		count = 0
	} else if count < 0 {
		count = 0
	}
	st := s.cache.Set(subject, domain.StatePatch{
		Active: &active,
		Count:  &count,
	})
	return st, nil
}
