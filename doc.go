// Package mempool implements multi-pool, goroutine-local, monotonic bump
// allocation with a generational copy-on-GC reclamation hook.
//
// It targets programs that allocate many small short-lived objects across
// many goroutines and release them in bulk: graph builders, parsers, tree
// rewriters. Per-object Free is a no-op by contract; reclamation is
// O(chunks) through Clean, CleanTemp, or a GC cycle.
//
// # Model
//
// A Pool is an allocation domain with a dense id in [0, MaxPools). Every
// allocating goroutine lazily gets its own pair of arenas per pool, the two
// generations: the active one serves Alloc, the other serves AllocTemp and
// becomes the copy target during GC. After a goroutine's first allocation on
// a pool the fast path takes no locks: goroutine-id lookup, slot index,
// pointer bump.
//
// A process-global registry tracks which arena handles each goroutine has
// bound, so a coordinator can walk and release every arena of a pool from
// any goroutine.
//
// # GC
//
// GC does not trace. RegisterGC installs a user callback that copies
// everything reachable into the new active generation:
//
//	pool.RegisterGC(func() { root = deepCopy(pool, root) })
//	// stop all allocator-using goroutines, then:
//	pool.GC()
//
// During the callback both generations hold valid data; afterwards every
// pre-GC pointer is invalid. GC, Clean, CleanTemp and Close require that no
// goroutine is allocating on the pool.
//
// # Safety
//
// Pool memory is not scanned by the Go garbage collector. Pool-allocated
// values may point at other values in the same pool, but must not hold the
// only reference to an ordinary Go heap object. Long-lived worker goroutines
// should call Detach before exiting.
package mempool
