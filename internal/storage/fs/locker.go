package fs

import "sync"

// Locker hands out one mutex per storage key so concurrent writers to the
// same blob are serialized without a global lock.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
	}
}
