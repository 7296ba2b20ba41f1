package mempool

import (
	"sync"

	"github.com/petermattis/goid"

	"github.com/23skdu/mempool/internal/arena"
	"github.com/23skdu/mempool/internal/concurrency"
	"github.com/23skdu/mempool/internal/registry"
)

// slotEntry holds one goroutine's two generation arenas for one pool id.
// The spinlock serializes first-touch arena creation only; it is entered at
// most once per (goroutine, pool, generation) and never held around user
// code.
type slotEntry struct {
	mu   concurrency.SpinLock
	gens [2]arena.Handle
}

// slotTable is one goroutine's arena table, indexed by pool id. It is
// created lazily on the goroutine's first allocation and owned exclusively
// by that goroutine; the registry only ever sees the addresses of the
// Handle cells inside it.
type slotTable struct {
	slots [MaxPools]slotEntry
}

// localTables maps goroutine id -> *slotTable. A sync.Map keeps the hot-path
// lookup lock-free once a goroutine's entry exists.
var localTables sync.Map

// currentTable returns the calling goroutine's slot table, creating it on
// first touch. Go exposes no thread-local storage, so the "thread" of the
// allocator model is the goroutine, identified via its runtime id.
func currentTable() *slotTable {
	gid := goid.Get()
	if v, ok := localTables.Load(gid); ok {
		return v.(*slotTable)
	}
	t := new(slotTable)
	localTables.Store(gid, t)
	return t
}

// Detach tears down the calling goroutine's slot table: every non-empty slot
// is unbound from the registry first and its arena released after, so a
// concurrent walk on another pool can never reach a dangling handle.
// Long-lived worker goroutines that allocated on any pool should call
// Detach before exiting; a goroutine that never allocated may call it
// freely.
//
// Goroutines have no exit hooks, so this is the explicit equivalent of
// thread-exit teardown. Skipping it leaks the (empty after Clean/Close)
// arenas of this goroutine until the owning pools are closed.
func Detach() {
	gid := goid.Get()
	v, ok := localTables.LoadAndDelete(gid)
	if !ok {
		return
	}
	t := v.(*slotTable)
	reg := registry.Global()
	for id := range t.slots {
		e := &t.slots[id]
		for gen := 0; gen < 2; gen++ {
			h := &e.gens[gen]
			if a := h.Load(); a != nil {
				reg.Unbind(id, gen, h)
				a.Release()
				h.Store(nil)
			}
		}
	}
}
