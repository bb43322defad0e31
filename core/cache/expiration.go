package cache

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// ScheduledWake returns the duration the expiration scheduler armed itself
// with at its last sweep, or 0 if no item is due to expire.
func (t *Table) ScheduledWake() time.Duration {
	return time.Duration(t.wakeAfter.Load())
}

// signal asks the scheduler to sweep right away. Only the presence of a
// pending signal matters, so a full wake channel is fine.
func (t *Table) signal() {
	select {
	case <-t.done:
		t.log.Debug("expiration stopped, wake signal dropped")
		return
	default:
	}

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// runExpiration is the scheduler: idle while next is zero, otherwise armed
// with a timer for next. A timer fire or a wake signal triggers a sweep
// which yields the next sleep duration.
func (t *Table) runExpiration() {
	var next time.Duration
	for {
		var (
			timer *clock.Timer
			fire  <-chan time.Time
		)
		if next > 0 {
			timer = t.clock.Timer(next)
			fire = timer.C
		}

		select {
		case <-t.done:
			if timer != nil {
				timer.Stop()
			}
			t.log.Debug("expiration stopped")
			return
		case <-fire:
			t.log.Debug("expiration check triggered", slog.Duration("after", next))
		case <-t.wake:
		}

		if timer != nil {
			timer.Stop()
		}
		next = t.sweep()
	}
}

// sweep removes every item whose life span elapsed since its last access,
// runs their teardown and returns the smallest remaining life span among
// the surviving items, 0 if none expires.
func (t *Table) sweep() time.Duration {
	defer t.metrics.SweepDuration(t.name).ObserveDuration()

	var (
		expired []*Item
		next    time.Duration
	)

	t.mu.Lock()
	now := t.clock.Now()
	for k, it := range t.items {
		if it.expiresNever() {
			continue
		}
		elapsed := now.Sub(it.AccessedOn())
		if elapsed >= it.lifeSpan {
			expired = append(expired, it)
			delete(t.items, k)
			continue
		}
		if remaining := it.lifeSpan - elapsed; next == 0 || remaining < next {
			next = remaining
		}
	}
	t.wakeAfter.Store(int64(next))
	n := len(t.items)
	t.mu.Unlock()

	if len(expired) > 0 {
		t.log.Debug("items expired", slog.Int("count", len(expired)), slog.Duration("next_check", next))
		t.metrics.Items(t.name, n)
	}
	for _, it := range expired {
		t.metrics.ItemRemoved(t.name, RemoveExpired)
		t.teardownRecover(it)
	}

	return next
}
