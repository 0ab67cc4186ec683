package indexer

import "sync/atomic"

// IndexLock is a non-blocking mutual-exclusion guard for IndexProject,
// built on a single compare-and-swap rather than sync.Mutex since callers need to know
// immediately whether a run was already in flight instead of queuing
// behind it.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking, reporting
// whether it succeeded.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called by whoever last
// succeeded at TryAcquire.
func (l *IndexLock) Release() {
	l.state.Store(0)
}
