package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerLocks_MutualExclusion(t *testing.T) {
	ol := NewOwnerLocks()

	const workers = 50
	var counter int

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := ol.Lock("u1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestOwnerLocks_IndependentOwners(t *testing.T) {
	ol := NewOwnerLocks()

	unlockA := ol.Lock("alice")
	// Must not block on alice's lock.
	unlockB := ol.Lock("bob")

	unlockB()
	unlockA()
}

func TestOwnerLocks_EntriesReleased(t *testing.T) {
	ol := NewOwnerLocks()

	unlock := ol.Lock("u1")
	ol.mu.Lock()
	assert.Len(t, ol.locks, 1)
	ol.mu.Unlock()

	unlock()
	ol.mu.Lock()
	assert.Empty(t, ol.locks)
	ol.mu.Unlock()
}

func TestOwnerLocks_ReuseAfterRelease(t *testing.T) {
	ol := NewOwnerLocks()

	for range 3 {
		unlock := ol.Lock("u1")
		unlock()
	}

	ol.mu.Lock()
	assert.Empty(t, ol.locks)
	ol.mu.Unlock()
}
