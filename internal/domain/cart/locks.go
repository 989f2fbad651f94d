package cart

import "sync"

// OwnerLocks serializes mutations per cart owner. Two browser tabs
// double-clicking "add" must not interleave between read and write, and
// order placement must hold the same exclusion so no add can race between
// price snapshot and cart clear. Carts of different owners are independent.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLocks creates an empty lock registry.
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*ownerLock)}
}

// Lock acquires the exclusion for the given owner and returns the matching
// unlock function. Lock entries are reference counted and removed once the
// last holder releases, so the registry does not grow with the user base.
func (ol *OwnerLocks) Lock(owner string) (unlock func()) {
	ol.mu.Lock()
	l, ok := ol.locks[owner]
	if !ok {
		l = &ownerLock{}
		ol.locks[owner] = l
	}
	l.refs++
	ol.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		ol.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(ol.locks, owner)
		}
		ol.mu.Unlock()
	}
}
