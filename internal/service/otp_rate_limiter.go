package service

import (
	"context"
	"sync"
	"time"
)

// OTPRateLimiter limita la frecuencia de emision de codigos por clave.
type OTPRateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// MemoryOTPRateLimiter es un rate limiter en memoria de ventana deslizante.
// Las claves sin intentos dentro de la ventana se descartan.
type MemoryOTPRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria de ventana deslizante.
func NewOTPRateLimiter(window time.Duration, max int) *MemoryOTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryOTPRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *MemoryOTPRateLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	kept := l.prune(l.hits[key], now)
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

// Cleanup elimina las claves cuya ventana quedo vacia.
func (l *MemoryOTPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	removed := 0
	for key, entries := range l.hits {
		kept := l.prune(entries, now)
		if len(kept) == 0 {
			delete(l.hits, key)
			removed++
			continue
		}
		l.hits[key] = kept
	}
	return removed
}

// Run ejecuta Cleanup cada interval hasta que ctx se cancela.
func (l *MemoryOTPRateLimiter) Run(ctx context.Context, interval time.Duration) {
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
			l.Cleanup()
		}
	}
}

func (l *MemoryOTPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

func (l *MemoryOTPRateLimiter) prune(entries []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
