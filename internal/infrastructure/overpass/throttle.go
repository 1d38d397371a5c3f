package overpass

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between outbound Overpass
// requests. The public instances share one fair-use budget per origin,
// so a single Throttle must be shared by every caller in the process.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the caller's reserved slot arrives. Slots are
// handed out under the lock, so concurrent workers never collapse onto
// the same one; the sleep itself happens outside the critical section.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	now := time.Now()
	slot := t.next
	if slot.Before(now) {
		slot = now
	}
	t.next = slot.Add(t.interval)
	t.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
