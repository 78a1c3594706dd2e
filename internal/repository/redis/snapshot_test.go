package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midgard-blog/interaction-sync/domain"
	redisRepo "github.com/midgard-blog/interaction-sync/internal/repository/redis"
)

// snapshotJSON mirrors the store's wire payload, field order included,
// so ExpectSet can match the exact bytes.
type snapshotJSON struct {
	Active      bool      `json:"active"`
	Count       int64     `json:"count"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func payload(t *testing.T, active bool, count int64, confirmedAt time.Time) []byte {
	t.Helper()
	data, err := json.Marshal(snapshotJSON{Active: active, Count: count, ConfirmedAt: confirmedAt})
	require.NoError(t, err)
	return data
}

func TestSnapshotGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := redisRepo.NewSnapshotStore(client, time.Hour)
	subject := domain.Subject{Kind: domain.KindPostLike, ID: "p1"}

	confirmedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectGet("interaction:post-like:p1").SetVal(string(payload(t, true, 12, confirmedAt)))

	st, err := store.Get(context.Background(), subject)
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.EqualValues(t, 12, st.Count)
	assert.True(t, confirmedAt.Equal(st.LastConfirmedAt))
	assert.False(t, st.Pending)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := redisRepo.NewSnapshotStore(client, time.Hour)

	mock.ExpectGet("interaction:follow:u1").RedisNil()

	_, err := store.Get(context.Background(), domain.Subject{Kind: domain.KindFollow, ID: "u1"})
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestSnapshotGetMalformedPayload(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := redisRepo.NewSnapshotStore(client, time.Hour)

	mock.ExpectGet("interaction:follow:u2").SetVal("not-json")

	_, err := store.Get(context.Background(), domain.Subject{Kind: domain.KindFollow, ID: "u2"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}

func TestSnapshotSet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := redisRepo.NewSnapshotStore(client, time.Hour)
	subject := domain.Subject{Kind: domain.KindCommentLike, ID: "c3"}

	confirmedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	state := domain.InteractionState{Active: true, Count: 4, LastConfirmedAt: confirmedAt}

	mock.ExpectSet("interaction:comment-like:c3", payload(t, true, 4, confirmedAt), time.Hour).SetVal("OK")

	require.NoError(t, store.Set(context.Background(), subject, state))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotDefaultTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := redisRepo.NewSnapshotStore(client, 0)
	subject := domain.Subject{Kind: domain.KindFollow, ID: "u9"}

	mock.ExpectSet("interaction:follow:u9", payload(t, true, 0, time.Time{}), redisRepo.DefaultSnapshotTTL).SetVal("OK")

	require.NoError(t, store.Set(context.Background(), subject, domain.InteractionState{Active: true}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
