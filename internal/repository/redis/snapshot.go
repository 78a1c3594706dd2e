package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/midgard-blog/interaction-sync/domain"
)

const (
	KeyInteraction = "interaction:%s:%s" // kind, subject id

	DefaultSnapshotTTL = 24 * time.Hour
)

// snapshotStore persists confirmed interaction states in Redis so a
// restarted process answers status reads without a gateway round trip.
// It is auxiliary: the in-memory cache stays the source of truth.
type snapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.SnapshotStore = (*snapshotStore)(nil)

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *snapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &snapshotStore{
		client: client,
		ttl:    ttl,
	}
}

type snapshotPayload struct {
	Active      bool      `json:"active"`
	Count       int64     `json:"count"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func key(subject domain.Subject) string {
	return fmt.Sprintf(KeyInteraction, subject.Kind, subject.ID)
}

func (s *snapshotStore) Get(ctx context.Context, subject domain.Subject) (domain.InteractionState, error) {
	data, err := s.client.Get(ctx, key(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.InteractionState{}, domain.ErrCacheMiss
	} else if err != nil {
		return domain.InteractionState{}, err
	}

	var payload snapshotPayload
	if err = json.Unmarshal(data, &payload); err != nil {
		return domain.InteractionState{}, err
	}
	return domain.InteractionState{
		Active:          payload.Active,
		Count:           payload.Count,
		LastConfirmedAt: payload.ConfirmedAt,
	}, nil
}

func (s *snapshotStore) Set(ctx context.Context, subject domain.Subject, state domain.InteractionState) error {
	data, err := json.Marshal(snapshotPayload{
		Active:      state.Active,
		Count:       state.Count,
		ConfirmedAt: state.LastConfirmedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(subject), data, s.ttl).Err()
}
