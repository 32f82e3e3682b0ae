// Package ratelimit implements the per-user sliding-window hourly request
// limiter (§4.10). Grounded on Genesis's mutex-guarded per-session map
// pattern (pkg/llm/session_manager.go), generalized to a slice of
// timestamps per user rather than a ChatHistory.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a per-process, per-user sliding-window hourly limit.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	byUser map[string][]time.Time
	now    func() time.Time
}

// New constructs a Limiter admitting at most max requests per user within
// window (the default window is one hour per §4.10).
func New(max int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{max: max, window: window, byUser: map[string][]time.Time{}, now: time.Now}
}

// Check prunes timestamps older than the window, then admits the request iff
// the remaining count is below max. On reject, it reports the seconds until
// the oldest surviving timestamp ages out of the window.
func (l *Limiter) Check(user string) (allowed bool, secondsUntilReset int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	stamps := l.byUser[user]
	kept := stamps[:0:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if l.max > 0 && len(kept) >= l.max {
		oldest := kept[0]
		resetAt := oldest.Add(l.window)
		secs := int(resetAt.Sub(now).Seconds())
		if secs < 0 {
			secs = 0
		}
		l.byUser[user] = kept
		return false, secs
	}

	kept = append(kept, now)
	l.byUser[user] = kept
	return true, 0
}
