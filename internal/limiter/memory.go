package limiter

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails        int
	firstFail    time.Time
	blockedUntil time.Time
}

// expired reports whether e neither blocks nor counts toward a block at now.
func (e *entry) expired(now time.Time, window time.Duration) bool {
	return !e.blockedUntil.After(now) && now.Sub(e.firstFail) > window
}

// Memory is a single-process limiter used when no Redis is configured.
// Entries are dropped once expired, at most one sweep per Window.
type Memory struct {
	mu    sync.Mutex
	m     map[string]*entry
	p     Policy
	now   func() time.Time
	swept time.Time
}

// NewMemory constructs an in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{m: make(map[string]*entry), p: p, now: time.Now}
}

func key(username string, ipHash []byte) string { return username + "\x00" + string(ipHash) }

func (l *Memory) Allow(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key(username, ipHash)
	e, ok := l.m[k]
	if !ok {
		return true, 0, nil
	}
	now := l.now()
	if left := e.blockedUntil.Sub(now); left > 0 {
		return false, left, nil
	}
	if e.expired(now, l.p.Window) {
		delete(l.m, k)
	}
	return true, 0, nil
}

func (l *Memory) Success(_ context.Context, username string, ipHash []byte) error {
	l.mu.Lock()
	delete(l.m, key(username, ipHash))
	l.mu.Unlock()
	return nil
}

func (l *Memory) Failure(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.swept) >= l.p.Window {
		l.sweep(now)
	}
	k := key(username, ipHash)
	e, ok := l.m[k]
	if !ok || now.Sub(e.firstFail) > l.p.Window {
		e = &entry{firstFail: now}
		l.m[k] = e
	}
	e.fails++
	if e.fails < l.p.MaxFails {
		return false, 0, nil
	}
	e.fails = 0
	e.blockedUntil = now.Add(l.p.BlockFor)
	return true, l.p.BlockFor, nil
}

func (l *Memory) sweep(now time.Time) {
	for k, e := range l.m {
		if e.expired(now, l.p.Window) {
			delete(l.m, k)
		}
	}
	l.swept = now
}
