package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Retention arms one idle timer per content id. Re-arming while a timer is
// pending is suppressed; active streaming cancels the pending timer. Firing
// only disconnects the swarm (via onIdle) — data removal happens solely in
// the daily wipe or an explicit purge.
type Retention struct {
	mu        sync.Mutex
	timers    map[string]*time.Timer
	idleAfter time.Duration
	onIdle    func(contentID string)
}

func NewRetention(idleAfter time.Duration, onIdle func(string)) *Retention {
	return &Retention{
		timers:    make(map[string]*time.Timer),
		idleAfter: idleAfter,
		onIdle:    onIdle,
	}
}

func (rt *Retention) Schedule(contentID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, pending := rt.timers[contentID]; pending {
		return
	}
	rt.timers[contentID] = time.AfterFunc(rt.idleAfter, func() {
		rt.mu.Lock()
		delete(rt.timers, contentID)
		rt.mu.Unlock()
		rt.onIdle(contentID)
	})
}

func (rt *Retention) Cancel(contentID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if t, ok := rt.timers[contentID]; ok {
		t.Stop()
		delete(rt.timers, contentID)
	}
}

func (rt *Retention) CancelAll() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for id, t := range rt.timers {
		t.Stop()
		delete(rt.timers, id)
	}
}

// Pending reports whether an idle timer is armed for the content id.
func (rt *Retention) Pending(contentID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.timers[contentID]
	return ok
}

// nextWipeAt returns the next wall-clock occurrence of hour o'clock in loc.
func nextWipeAt(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunWipeScheduler blocks until ctx is done, destroying every session and
// its data once per day at the configured local hour. This is the only
// scheduled path that frees disk space.
func RunWipeScheduler(ctx context.Context, reg *Registry, hour int, tz string) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("[retention] bad WIPE_TZ %q, using local time: %v", tz, err)
		loc = time.Local
	}
	for {
		next := nextWipeAt(time.Now(), hour, loc)
		log.Printf("[retention] next cache wipe at %s", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			log.Printf("[retention] running daily cache wipe")
			reg.PurgeAll()
		}
	}
}
