package locker

import (
	"context"
	"sync"
)

// Locker serializes work on a string key. Recompute jobs use it keyed by
// (partner, chain) so overlapping period ranges can never interleave their
// commission line writes.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Acquire blocks until the key is free or the context is cancelled.
func (l *Locker) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, e, false)
		return ctx.Err()
	}
}

// Release frees the key for the next waiter.
func (l *Locker) Release(key string) {
	l.mu.Lock()
	e, ok := l.locks[key]
	l.mu.Unlock()
	if !ok {
		return
	}
	l.release(key, e, true)
}

func (l *Locker) release(key string, e *entry, held bool) {
	if held {
		<-e.sem
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs <= 0 {
		delete(l.locks, key)
	}
}
