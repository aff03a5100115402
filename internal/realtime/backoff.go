package realtime

import (
	"crypto/rand"
	"math"
	"math/big"
	"sync"
	"time"
)

// TokenBucket limits how often reconnects may be attempted.
type TokenBucket struct {
	tokens    int
	capacity  int
	refillAt  time.Time
	refillDur time.Duration
	mu        sync.Mutex
}

func NewTokenBucket(capacity int, refillDuration time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:    capacity,
		capacity:  capacity,
		refillAt:  time.Now().Add(refillDuration),
		refillDur: refillDuration,
	}
}

// Take consumes a token if one is available.
func (tb *TokenBucket) Take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if now.After(tb.refillAt) {
		tb.tokens = tb.capacity
		tb.refillAt = now.Add(tb.refillDur)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// UntilRefill is how long until Take can succeed again.
func (tb *TokenBucket) UntilRefill() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.tokens > 0 {
		return 0
	}
	return time.Until(tb.refillAt)
}

// Backoff returns the delay before reconnect attempt n (1-based): base
// doubled per attempt with +-20% jitter, never above maxDelay.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	interval := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if interval > maxDelay || interval <= 0 {
		interval = maxDelay
	}

	jitterMultiplier, err := rand.Int(rand.Reader, big.NewInt(401))
	if err != nil {
		interval = time.Duration(float64(interval) * 0.9)
	} else {
		interval = time.Duration(float64(interval) * (0.8 + float64(jitterMultiplier.Int64())/1000.0))
	}

	if interval > maxDelay {
		interval = maxDelay
	}
	return interval
}
