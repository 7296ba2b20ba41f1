package concurrency

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a minimal test-and-set lock for critical sections that are a
// handful of instructions long. The slot tables use it to serialize
// first-touch arena creation; that section runs at most once per
// (goroutine, pool, generation), so contention is effectively zero.
// It must never be held around user callbacks or anything that can block.
type SpinLock struct {
	locked atomic.Bool
}

// Lock spins until the lock is acquired, yielding the processor between
// attempts so a preempted holder can run.
func (l *SpinLock) Lock() {
	for !l.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock without spinning. Returns false if it is held.
func (l *SpinLock) TryLock() bool {
	return l.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock. Calling Unlock on an unlocked SpinLock is a bug
// in the caller; the lock does not detect it.
func (l *SpinLock) Unlock() {
	l.locked.Store(false)
}
