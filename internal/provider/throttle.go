package provider

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces out calls to a rate-limited upstream.
type Throttle interface {
	Wait(ctx context.Context) error
}

// SoftThrottle enforces a minimum gap between calls using a shared
// last-call timestamp. The check and the update are separate atomic
// operations, so two concurrent callers can occasionally both proceed
// after a shorter wait. Upstream tolerates that.
type SoftThrottle struct {
	minGap time.Duration
	last   atomic.Int64 // unix nanos of the last call
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewSoftThrottle creates a soft throttle with the given minimum gap.
func NewSoftThrottle(minGap time.Duration) *SoftThrottle {
	return &SoftThrottle{minGap: minGap, now: time.Now, sleep: sleepCtx}
}

// Wait blocks until minGap has elapsed since the previous call.
func (t *SoftThrottle) Wait(ctx context.Context) error {
	if last := t.last.Load(); last != 0 {
		elapsed := t.now().Sub(time.Unix(0, last))
		if wait := t.minGap - elapsed; wait > 0 {
			if err := t.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	t.last.Store(t.now().UnixNano())
	return nil
}

// TokenBucket is the strict alternative, shared across all requests.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows one call per interval with no burst.
func NewTokenBucket(interval time.Duration) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a token is available or ctx is done.
func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
