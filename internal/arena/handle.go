package arena

import "sync/atomic"

// Handle is the stable cell through which both the owning slot table and the
// pool registry reach an arena. The slot table owns the cell; the registry
// holds a non-owning *Handle and dereferences it only under the per-pool
// registry lock.
//
// The pointer is atomic for defensive reasons only. The documented contract
// still requires quiescence on a pool before its arenas are released.
type Handle struct {
	p atomic.Pointer[Arena]
}

// Load returns the current arena, or nil if the slot is empty.
func (h *Handle) Load() *Arena {
	return h.p.Load()
}

// Store publishes a freshly created arena into the cell.
func (h *Handle) Store(a *Arena) {
	h.p.Store(a)
}

// ReleaseAndClear releases the arena (if any) and empties the cell. Used on
// pool teardown and goroutine detach, after the handle has been removed from
// the registry or its registry entry dropped wholesale.
func (h *Handle) ReleaseAndClear() {
	if a := h.p.Swap(nil); a != nil {
		a.Release()
	}
}
