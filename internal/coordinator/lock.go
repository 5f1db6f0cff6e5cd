package coordinator

import "sync"

// packageLock serializes the decision phase of one package.
// refs counts holders and waiters; a lock with no refs is discarded.
type packageLock struct {
	mu   sync.Mutex
	refs int
}

// keyedLocks hands out one mutex per package so unrelated packages never
// contend.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*packageLock
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*packageLock)}
}

// Acquire blocks until the lock for key is held and returns its release func.
// The release func must be called exactly once.
func (k *keyedLocks) Acquire(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &packageLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of packages with a held or awaited lock
// Diagnostic only; used to check that released locks are reclaimed
func (k *keyedLocks) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
