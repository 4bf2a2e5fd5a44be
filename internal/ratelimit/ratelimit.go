package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of an admit check. RetryAfter is only set on
// denial and reports how long until the oldest message leaves the window.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter tracks message timestamps per user inside a trailing window.
// Windows are created lazily and kept for the process lifetime.
type Limiter struct {
	mu      sync.RWMutex
	windows map[int64]*window
	limit   int
	span    time.Duration
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

func New(limit int, span time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if span <= 0 {
		span = DefaultWindow
	}

	return &Limiter{
		windows: make(map[int64]*window),
		limit:   limit,
		span:    span,
	}
}

// Admit evicts stamps older than the window, then admits the message if the
// user has budget left, recording now. Safe for concurrent users; each
// user's window carries its own lock.
func (l *Limiter) Admit(userID int64, now time.Time) Decision {
	w := l.window(userID)

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-l.span)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= l.limit {
		return Decision{RetryAfter: w.stamps[0].Add(l.span).Sub(now)}
	}

	w.stamps = append(w.stamps, now)

	return Decision{Allowed: true}
}

func (l *Limiter) window(userID int64) *window {
	l.mu.RLock()
	w, ok := l.windows[userID]
	l.mu.RUnlock()

	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok = l.windows[userID]; ok {
		return w
	}

	w = &window{}
	l.windows[userID] = w

	return w
}
