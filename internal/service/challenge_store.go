package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"masterlearn/internal/domain"
)

var ErrChallengeNotFound = errors.New("otp challenge not found")

// ChallengeStore guarda los desafios OTP pendientes por session key.
// Delete informa si la entrada existia; es el punto que garantiza que
// una session key se consume una sola vez.
type ChallengeStore interface {
	Save(ctx context.Context, challenge domain.OTPChallenge) error
	Get(ctx context.Context, sessionKey string) (domain.OTPChallenge, error)
	Delete(ctx context.Context, sessionKey string) (bool, error)
}

// MemoryChallengeStore es el store en memoria del proceso. Los desafios
// vencidos se conservan durante retention para poder responder "expirado"
// y luego los elimina Sweep.
type MemoryChallengeStore struct {
	mu        sync.Mutex
	items     map[string]domain.OTPChallenge
	retention time.Duration
	now       func() time.Time
}

func NewMemoryChallengeStore(retention time.Duration) *MemoryChallengeStore {
	if retention < 0 {
		retention = 0
	}
	return &MemoryChallengeStore{
		items:     make(map[string]domain.OTPChallenge),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryChallengeStore) Save(_ context.Context, challenge domain.OTPChallenge) error {
	key := strings.TrimSpace(challenge.SessionKey)
	if key == "" {
		return errors.New("session key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = challenge
	return nil
}

func (s *MemoryChallengeStore) Get(_ context.Context, sessionKey string) (domain.OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(sessionKey)
	ch, ok := s.items[key]
	if !ok {
		return domain.OTPChallenge{}, ErrChallengeNotFound
	}
	if s.evictable(ch) {
		delete(s.items, key)
		return domain.OTPChallenge{}, ErrChallengeNotFound
	}
	return ch, nil
}

func (s *MemoryChallengeStore) Delete(_ context.Context, sessionKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(sessionKey)
	if _, ok := s.items[key]; !ok {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

// Sweep elimina los desafios vencidos hace mas de retention.
func (s *MemoryChallengeStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, ch := range s.items {
		if s.evictable(ch) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}

// Run ejecuta Sweep cada interval hasta que ctx se cancela.
func (s *MemoryChallengeStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryChallengeStore) evictable(ch domain.OTPChallenge) bool {
	return s.now().After(ch.ExpiresAt.Add(s.retention))
}
