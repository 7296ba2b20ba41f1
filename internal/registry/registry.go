// Package registry implements the process-global pool registry: dense pool
// id issuance and, per live id, the set of arena handles that goroutines
// have bound for each generation. A coordinator uses ForEach to walk every
// live arena of a pool from any goroutine.
package registry

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/23skdu/mempool/internal/arena"
	"github.com/23skdu/mempool/internal/metrics"
)

// MaxPools bounds the number of simultaneously live pools. It is the length
// of every per-goroutine slot table, so it is kept small.
const MaxPools = 64

// ErrExhausted is returned by AcquireID when all MaxPools ids are in use.
var ErrExhausted = errors.New("registry: pool ids exhausted")

// entry tracks the bound handles of one live pool id. The mutex is a plain
// sync.Mutex rather than a spinlock: ForEach holds it while releasing
// arenas, and a GC callback allocating on another goroutine may contend on
// it through Bind.
type entry struct {
	mu   sync.Mutex
	gens [2]map[*arena.Handle]struct{}
}

func newEntry() *entry {
	e := &entry{}
	e.gens[0] = make(map[*arena.Handle]struct{})
	e.gens[1] = make(map[*arena.Handle]struct{})
	return e
}

// Registry issues dense pool ids from [0, MaxPools) and tracks per-id handle
// sets. entries is an array of atomic pointers so Bind/Unbind/ForEach on one
// pool never contend with id management or with traffic on other pools.
type Registry struct {
	mu      sync.Mutex // guards freeIDs
	freeIDs *btree.BTreeG[int]
	entries [MaxPools]atomic.Pointer[entry]
}

// New creates a registry with every id free.
func New() *Registry {
	r := &Registry{freeIDs: btree.NewOrderedG[int](8)}
	for id := 0; id < MaxPools; id++ {
		r.freeIDs.ReplaceOrInsert(id)
	}
	return r
}

var global = New()

// Global returns the process-wide registry. Initialization happens once at
// package load, before any pool can exist.
func Global() *Registry {
	return global
}

// AcquireID takes the smallest free id and creates its entry.
func (r *Registry) AcquireID() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.freeIDs.Min()
	if !ok {
		return 0, ErrExhausted
	}
	r.freeIDs.Delete(id)
	r.entries[id].Store(newEntry())
	return id, nil
}

// ReleaseID drops the id's entry and returns the id to the free set. The
// caller must already have released every arena bound under the id; the
// entry (and any stale handle pointers in it) is discarded wholesale.
func (r *Registry) ReleaseID(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.entries[id].Swap(nil); e != nil {
		e.mu.Lock()
		n := len(e.gens[0]) + len(e.gens[1])
		e.mu.Unlock()
		metrics.RegistryBoundHandles.Sub(float64(n))
	}
	r.freeIDs.ReplaceOrInsert(id)
}

// Bind records that h now holds a live arena for (id, gen). Called by the
// owning goroutine the first time it writes a non-nil arena into the slot.
func (r *Registry) Bind(id, gen int, h *arena.Handle) {
	e := r.entries[id].Load()
	if e == nil {
		return
	}
	e.mu.Lock()
	e.gens[gen][h] = struct{}{}
	e.mu.Unlock()
	metrics.RegistryBoundHandles.Inc()
}

// Unbind removes h from (id, gen). Called by the owning goroutine before it
// tears the arena down, so ForEach can never observe a dangling handle.
func (r *Registry) Unbind(id, gen int, h *arena.Handle) {
	e := r.entries[id].Load()
	if e == nil {
		return
	}
	e.mu.Lock()
	_, present := e.gens[gen][h]
	delete(e.gens[gen], h)
	e.mu.Unlock()
	if present {
		metrics.RegistryBoundHandles.Dec()
	}
}

// ForEach invokes fn for every handle bound under (id, gen), holding the
// per-id lock for the duration. fn must not call back into user code; the
// pool layer runs GC callbacks strictly outside this lock.
func (r *Registry) ForEach(id, gen int, fn func(h *arena.Handle)) {
	e := r.entries[id].Load()
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for h := range e.gens[gen] {
		fn(h)
	}
}

// BoundCount returns the number of handles bound under (id, gen). Used by
// stats and tests.
func (r *Registry) BoundCount(id, gen int) int {
	e := r.entries[id].Load()
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.gens[gen])
}

// FreeIDs returns how many pool ids remain available.
func (r *Registry) FreeIDs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freeIDs.Len()
}
