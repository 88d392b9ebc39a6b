// Package locker serializes operations against a shared resource,
// keyed by an opaque string such as a repository path.
//
// Every operation is treated as exclusive: even read-style git
// operations stage state into the shadow index, so there is no
// read/write distinction. Operations on different keys never block
// each other.
package locker

import "sync"

// Locker runs at most one function at a time per key.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New returns an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Do runs fn while holding the exclusive lock for key. Calls for the
// same key queue behind any in-flight call; calls for different keys
// proceed in parallel. The lock is released on every exit path,
// including a panic inside fn.
func (l *Locker) Do(key string, fn func() error) error {
	e := l.acquire(key)
	e.mu.Lock()
	defer func() {
		e.mu.Unlock()
		l.release(key, e)
	}()
	return fn()
}

func (l *Locker) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
