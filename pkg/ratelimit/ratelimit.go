// Package ratelimit implements per-client sliding-window request limits.
package ratelimit

import (
	"sync"
	"time"
)

// Class separates endpoint budgets: denials in one class never consume
// budget from another.
type Class string

const (
	ClassSingle Class = "single"
	ClassBatch  Class = "batch"
)

// Window is one rolling budget: at most Limit admits per Period.
type Window struct {
	Limit  int
	Period time.Duration
}

type clientKey struct {
	client string
	class  Class
}

// Limiter tracks admitted requests per (client, class) against every window
// configured for that class. A request is admitted only when it fits all
// windows, and the check and the increment happen under one lock so
// concurrent callers cannot over-admit. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	limits map[Class][]Window
	hits   map[clientKey][]time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a limiter with the given per-class windows. Classes without
// windows are unlimited. A background sweep drops idle clients.
func New(limits map[Class][]Window) *Limiter {
	l := &Limiter{
		limits: limits,
		hits:   make(map[clientKey][]time.Time),
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request from client may proceed in the given
// class, consuming one unit of every window's budget when it may.
func (l *Limiter) Allow(client string, class Class) bool {
	windows := l.limits[class]
	if len(windows) == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	key := clientKey{client: client, class: class}
	fresh := l.pruneLocked(key, now)

	for _, w := range windows {
		cutoff := now.Add(-w.Period)
		count := 0
		for _, t := range fresh {
			if t.After(cutoff) {
				count++
			}
		}
		if count >= w.Limit {
			return false
		}
	}

	l.hits[key] = append(fresh, now)
	return true
}

// RetryAfter estimates how long the client must wait before the next request
// in this class could be admitted. Zero means a request would be admitted now.
func (l *Limiter) RetryAfter(client string, class Class) time.Duration {
	windows := l.limits[class]
	if len(windows) == 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	fresh := l.pruneLocked(clientKey{client: client, class: class}, now)

	var wait time.Duration
	for _, w := range windows {
		cutoff := now.Add(-w.Period)
		count := 0
		oldest := time.Time{}
		for _, t := range fresh {
			if t.After(cutoff) {
				count++
				if oldest.IsZero() || t.Before(oldest) {
					oldest = t
				}
			}
		}
		if count >= w.Limit && !oldest.IsZero() {
			if d := oldest.Add(w.Period).Sub(now); d > wait {
				wait = d
			}
		}
	}
	return wait
}

// pruneLocked drops timestamps outside the longest window for the class and
// stores the survivors. Caller must hold l.mu.
func (l *Limiter) pruneLocked(key clientKey, now time.Time) []time.Time {
	var longest time.Duration
	for _, w := range l.limits[key.class] {
		if w.Period > longest {
			longest = w.Period
		}
	}
	cutoff := now.Add(-longest)

	old := l.hits[key]
	fresh := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 && len(old) > 0 {
		delete(l.hits, key)
		return nil
	}
	l.hits[key] = fresh
	return fresh
}

// Stop terminates the background sweep.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key := range l.hits {
				l.pruneLocked(key, now)
			}
			l.mu.Unlock()
		}
	}
}
