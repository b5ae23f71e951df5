package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter per-chat token bucket for outgoing messages
type RateLimiter struct {
	limiters map[int64]*chatLimiter
	mu       sync.Mutex
	maxRate  int // messages per second per chat
}

type chatLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing maxRate messages per second per chat
func NewRateLimiter(maxRate int) *RateLimiter {
	if maxRate < 1 {
		maxRate = 1
	}
	return &RateLimiter{
		limiters: make(map[int64]*chatLimiter),
		maxRate:  maxRate,
	}
}

func (r *RateLimiter) get(chatID int64) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[chatID]
	if !ok {
		l = &chatLimiter{limiter: rate.NewLimiter(rate.Limit(r.maxRate), r.maxRate)}
		r.limiters[chatID] = l
	}
	l.lastSeen = time.Now()
	return l.limiter
}

// Allow reports whether a message to chatID may be sent now
func (r *RateLimiter) Allow(chatID int64) bool {
	return r.get(chatID).Allow()
}

// Wait blocks until a message to chatID may be sent or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	return r.get(chatID).Wait(ctx)
}

// Reset drops the limiter of one chat
func (r *RateLimiter) Reset(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, chatID)
}

// Len number of tracked chats
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// CleanupOldLimiters drops limiters idle for longer than maxIdle (called periodically)
func (r *RateLimiter) CleanupOldLimiters(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for chatID, l := range r.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(r.limiters, chatID)
			removed++
		}
	}
	return removed
}
