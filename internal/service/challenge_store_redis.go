package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"masterlearn/internal/domain"
)

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisChallengeStore comparte los desafios entre replicas. La clave vive
// hasta expires_at mas retention; pasado eso Redis la descarta sola.
type redisChallengeStore struct {
	client    redisKV
	prefix    string
	retention time.Duration
}

func NewRedisChallengeStore(client *redis.Client, retention time.Duration) ChallengeStore {
	if client == nil {
		return nil
	}
	if retention < 0 {
		retention = 0
	}
	return &redisChallengeStore{
		client:    client,
		prefix:    "otp:challenge:",
		retention: retention,
	}
}

func (s *redisChallengeStore) Save(ctx context.Context, challenge domain.OTPChallenge) error {
	key := strings.TrimSpace(challenge.SessionKey)
	if key == "" {
		return errors.New("session key is required")
	}
	payload, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	ttl := time.Until(challenge.ExpiresAt) + s.retention
	if ttl <= 0 {
		ttl = time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, payload, ttl).Err()
}

func (s *redisChallengeStore) Get(ctx context.Context, sessionKey string) (domain.OTPChallenge, error) {
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return domain.OTPChallenge{}, ErrChallengeNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OTPChallenge{}, ErrChallengeNotFound
		}
		return domain.OTPChallenge{}, err
	}
	var ch domain.OTPChallenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return domain.OTPChallenge{}, err
	}
	return ch, nil
}

func (s *redisChallengeStore) Delete(ctx context.Context, sessionKey string) (bool, error) {
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
