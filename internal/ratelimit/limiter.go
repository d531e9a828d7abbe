// Package ratelimit throttles repeated login attempts per client key over a
// fixed window. It answers before any credential work happens, so a throttled
// caller learns nothing about whether the account exists.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter interface {
	// Admit reports whether an attempt from key may proceed.
	Admit(ctx context.Context, key string) (bool, error)
}

type Config struct {
	Window      time.Duration
	MaxAttempts int
}

type windowEntry struct {
	mu      sync.Mutex
	count   int
	started time.Time
}

// MemoryLimiter counts attempts in process memory with one entry per client
// key, so unrelated clients never contend on a shared lock.
type MemoryLimiter struct {
	cfg     Config
	entries sync.Map
	stop    chan struct{}
	now     func() time.Time
}

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	l := &MemoryLimiter{
		cfg:  cfg,
		stop: make(chan struct{}),
		now:  time.Now,
	}
	go l.cleanup()
	return l
}

func (l *MemoryLimiter) Admit(ctx context.Context, key string) (bool, error) {
	now := l.now()
	value, _ := l.entries.LoadOrStore(key, &windowEntry{started: now})
	entry := value.(*windowEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.Sub(entry.started) >= l.cfg.Window {
		entry.count = 0
		entry.started = now
	}
	entry.count++
	return entry.count <= l.cfg.MaxAttempts, nil
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := l.now().Add(-l.cfg.Window)
			l.entries.Range(func(key, value interface{}) bool {
				entry := value.(*windowEntry)
				entry.mu.Lock()
				if entry.started.Before(cutoff) {
					l.entries.Delete(key)
				}
				entry.mu.Unlock()
				return true
			})
		case <-l.stop:
			return
		}
	}
}

func (l *MemoryLimiter) Stop() {
	close(l.stop)
}
