package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"masterlearn/internal/domain"
)

func TestMemoryChallengeStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallengeStore(time.Minute)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrChallengeNotFound)

	ch := domain.OTPChallenge{SessionKey: "alice_1", Username: "alice", ExpiresAt: time.Now().UTC().Add(5 * time.Minute)}
	require.NoError(t, store.Save(ctx, ch))

	got, err := store.Get(ctx, " alice_1 ")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	deleted, err := store.Delete(ctx, "alice_1")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = store.Delete(ctx, "alice_1")
	require.NoError(t, err)
	require.False(t, deleted, "second delete must report the key was already consumed")

	require.Error(t, store.Save(ctx, domain.OTPChallenge{SessionKey: "  "}))
}

func TestMemoryChallengeStore_RetentionAndSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryChallengeStore(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, domain.OTPChallenge{SessionKey: "live", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, domain.OTPChallenge{SessionKey: "recent", ExpiresAt: now.Add(-30 * time.Second)}))
	require.NoError(t, store.Save(ctx, domain.OTPChallenge{SessionKey: "stale", ExpiresAt: now.Add(-2 * time.Minute)}))

	// Vencido pero dentro de retention: sigue visible para reportar expiracion.
	got, err := store.Get(ctx, "recent")
	require.NoError(t, err)
	require.True(t, got.Expired(now))

	_, err = store.Get(ctx, "stale")
	require.ErrorIs(t, err, ErrChallengeNotFound)

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 1, store.Len())

	now = now.Add(time.Hour)
	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 0, store.Len())
}

func TestMemoryChallengeStore_RunStopsOnCancel(t *testing.T) {
	store := NewMemoryChallengeStore(0)
	store.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	require.NoError(t, store.Save(context.Background(), domain.OTPChallenge{SessionKey: "k", ExpiresAt: time.Now().UTC()}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}
}

type mockRedisKVClient struct {
	data       map[string][]byte
	lastSetKey string
	lastSetTTL time.Duration

	setErr error
	getErr error
	delErr error
}

func newMockRedisKVClient() *mockRedisKVClient {
	return &mockRedisKVClient{data: make(map[string][]byte)}
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.data[key] = value.([]byte)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	raw, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(raw))
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisChallengeStore_Basics(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedisKVClient()
	store := &redisChallengeStore{client: mock, prefix: "otp:challenge:", retention: time.Minute}

	expires := time.Now().UTC().Add(5 * time.Minute)
	require.NoError(t, store.Save(ctx, domain.OTPChallenge{SessionKey: " k1 ", Username: "alice", ExpiresAt: expires}))
	require.Equal(t, "otp:challenge:k1", mock.lastSetKey)
	require.Greater(t, mock.lastSetTTL, 5*time.Minute)
	require.LessOrEqual(t, mock.lastSetTTL, 6*time.Minute)

	var stored domain.OTPChallenge
	require.NoError(t, json.Unmarshal(mock.data["otp:challenge:k1"], &stored))
	require.Equal(t, "alice", stored.Username)

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.True(t, got.ExpiresAt.Equal(expires))

	deleted, err := store.Delete(ctx, "k1")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = store.Delete(ctx, "k1")
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = store.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestRedisChallengeStore_ErrorPaths(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedisKVClient()
	mock.setErr = errors.New("set failed")
	mock.getErr = errors.New("get failed")
	mock.delErr = errors.New("del failed")
	store := &redisChallengeStore{client: mock, prefix: "otp:challenge:"}

	require.Error(t, store.Save(ctx, domain.OTPChallenge{SessionKey: ""}))
	require.Error(t, store.Save(ctx, domain.OTPChallenge{SessionKey: "k", ExpiresAt: time.Now().Add(time.Minute)}))

	_, err := store.Get(ctx, "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChallengeNotFound)

	_, err = store.Get(ctx, " ")
	require.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = store.Delete(ctx, "k")
	require.Error(t, err)

	deleted, err := store.Delete(ctx, "")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestRedisChallengeStore_ExpiredChallengeKeepsPositiveTTL(t *testing.T) {
	mock := newMockRedisKVClient()
	store := &redisChallengeStore{client: mock, prefix: "otp:challenge:"}

	require.NoError(t, store.Save(context.Background(), domain.OTPChallenge{SessionKey: "k", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.Equal(t, time.Second, mock.lastSetTTL)
}
