package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/midgard-blog/interaction-sync/domain"
)

// statusRepository 协调层: coordinates the in-memory cache, the optional
// snapshot store and the remote gateway for status reads. Concurrent
// loads of the same subject collapse into one gateway round trip.
type statusRepository struct {
	cache     domain.StatusCache
	snapshots domain.SnapshotStore // may be nil
	gateway   domain.InteractionGateway
	loadGroup singleflight.Group
}

var _ domain.StatusRepository = (*statusRepository)(nil)

// NewStatusRepository creates the coordinating repository. snapshots
// may be nil, in which case cold reads go straight to the gateway.
func NewStatusRepository(cache domain.StatusCache, snapshots domain.SnapshotStore, gw domain.InteractionGateway) *statusRepository {
	return &statusRepository{
		cache:     cache,
		snapshots: snapshots,
		gateway:   gw,
	}
}

func (r *statusRepository) Load(ctx context.Context, subject domain.Subject) (domain.InteractionState, error) {
	if err := subject.Validate(); err != nil {
		return domain.InteractionState{}, err
	}

	result, err, _ := r.loadGroup.Do(subject.String(), func() (any, error) {
		// Re-check inside the flight: a winner may have seeded the
		// cache while this call was queued behind it.
		if st, ok := r.cache.Get(subject); ok {
			return st, nil
		}

		if r.snapshots != nil {
			st, err := r.snapshots.Get(ctx, subject)
			if err == nil {
				return r.cache.Set(subject, domain.FullPatch(st)), nil
			}
			if !errors.Is(err, domain.ErrCacheMiss) {
				logrus.Warnf("snapshot get failed for %s: %v", subject, err)
			}
		}

		st := domain.InteractionState{}
		switch subject.Kind {
		case domain.KindFollow:
			following, err := r.gateway.CheckFollowStatus(ctx, subject.ID)
			if err != nil {
				return nil, err
			}
			st.Active = following
			st.LastConfirmedAt = time.Now()
		default:
			// The platform exposes no per-caller like-status endpoint;
			// like state arrives with the content payload and is seeded
			// through Observe. A cold read starts from the zero state.
		}

		merged := r.cache.Set(subject, domain.FullPatch(st))
		if !st.LastConfirmedAt.IsZero() {
			r.SaveConfirmed(subject, merged)
		}
		return merged, nil
	})
	if err != nil {
		return domain.InteractionState{}, err
	}
	return result.(domain.InteractionState), nil
}

// SaveConfirmed writes a server-confirmed state behind the request,
// best effort. Pending (optimistic) states are refused outright.
func (r *statusRepository) SaveConfirmed(subject domain.Subject, state domain.InteractionState) {
	if r.snapshots == nil || state.Pending {
		return
	}
	go func() {
		if err := r.snapshots.Set(context.Background(), subject, state); err != nil {
			logrus.Warnf("snapshot set failed for %s: %v", subject, err)
		}
	}()
}
