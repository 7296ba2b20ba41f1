package mempool

import (
	"sync"
	"unsafe"
)

// The process-default pool backs the package-level allocation functions, for
// programs that want one allocation domain without carrying a *Pool around.
// It is created on first use and lives for the process.
var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-default pool, creating it on first use with
// DefaultConfig. Creation cannot fail while fewer than MaxPools pools exist;
// if it does fail the process is misconfigured and Default panics.
func Default() *Pool {
	defaultOnce.Do(func() {
		p, err := New(DefaultConfig())
		if err != nil {
			panic(err)
		}
		defaultPool = p
	})
	return defaultPool
}

// Malloc allocates on the default pool's active generation.
func Malloc(size, align uintptr) (unsafe.Pointer, error) {
	return Default().Alloc(size, align)
}

// MallocTemp allocates on the default pool's temporary generation.
func MallocTemp(size, align uintptr) (unsafe.Pointer, error) {
	return Default().AllocTemp(size, align)
}

// Free is a no-op; pool bytes are reclaimed in bulk.
func Free(unsafe.Pointer) {}

// RegisterGC stores the default pool's copy callback.
func RegisterGC(fn func()) {
	Default().RegisterGC(fn)
}

// GC runs a generational cycle on the default pool. Requires quiescence.
func GC() {
	Default().GC()
}

// Clean releases both generations of the default pool. Requires quiescence.
func Clean() {
	Default().Clean()
}

// CleanTemp releases the default pool's temporary generation. Requires
// quiescence.
func CleanTemp() {
	Default().CleanTemp()
}
