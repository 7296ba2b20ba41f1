package mempool

import (
	"log/slog"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/23skdu/mempool/internal/arena"
	"github.com/23skdu/mempool/internal/metrics"
	"github.com/23skdu/mempool/internal/registry"
)

// MaxPools is the upper bound on simultaneously live pools. Pool ids are
// dense in [0, MaxPools) and index every goroutine's slot table.
const MaxPools = registry.MaxPools

// Pool is an allocation domain. Each goroutine that allocates on a pool gets
// its own pair of arenas (the two generations), so the allocation fast path
// touches no shared state beyond a lock-free slot-table lookup.
//
// Alloc and AllocTemp are safe to call from any number of goroutines.
// GC, Clean, CleanTemp and Close require quiescence: no goroutine may be
// allocating on this pool while they run. That contract is the caller's;
// a correct pattern is stop workers, GC, resume.
type Pool struct {
	id     int
	active atomic.Uint32
	gcFn   func()
	cfg    Config
	logger *slog.Logger
	closed atomic.Bool
}

// New creates a pool, acquiring the smallest free pool id. Returns
// ErrExhausted when MaxPools pools are already live; no id is reserved on
// failure.
func New(cfg Config) (*Pool, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id, err := registry.Global().AcquireID()
	if err != nil {
		return nil, err
	}

	metrics.PoolsCreatedTotal.Inc()
	metrics.PoolsActive.Inc()
	logger.Debug("mempool: pool created", "pool_id", id, "chunk_size", cfg.ChunkSize)

	return &Pool{id: id, cfg: cfg, logger: logger}, nil
}

// ID returns the pool's dense id.
func (p *Pool) ID() int {
	return p.id
}

// Alloc returns size bytes aligned to align from the calling goroutine's
// active-generation arena. align must be a power of two. The bytes remain
// valid until the generation is retired by Clean, or by a GC cycle.
func (p *Pool) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	return p.alloc(size, align, int(p.active.Load()))
}

// AllocTemp is Alloc routed to the inactive (temporary) generation: scratch
// that will not survive the next CleanTemp or GC.
func (p *Pool) AllocTemp(size, align uintptr) (unsafe.Pointer, error) {
	return p.alloc(size, align, 1-int(p.active.Load()))
}

func (p *Pool) alloc(size, align uintptr, gen int) (unsafe.Pointer, error) {
	e := &currentTable().slots[p.id]
	h := &e.gens[gen]
	if a := h.Load(); a != nil {
		return a.Alloc(size, align)
	}
	return p.allocFirstTouch(e, h, gen, size, align)
}

// allocFirstTouch creates this goroutine's arena for (pool, gen). The arena
// is published and bound only after the requested allocation succeeded, so a
// failed allocation leaves the slot table and registry untouched.
func (p *Pool) allocFirstTouch(e *slotEntry, h *arena.Handle, gen int, size, align uintptr) (unsafe.Pointer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a := h.Load(); a != nil {
		return a.Alloc(size, align)
	}
	a := arena.New(p.cfg.ChunkSize, p.cfg.MaxBytes)
	ptr, err := a.Alloc(size, align)
	if err != nil {
		return nil, err
	}
	h.Store(a)
	registry.Global().Bind(p.id, gen, h)
	return ptr, nil
}

// Free is a no-op: bytes are reclaimed only when their generation is
// released. Provided for adapter compatibility.
func (p *Pool) Free(unsafe.Pointer) {}

// RegisterGC stores the copy callback invoked by GC. The callback must
// re-allocate everything reachable with default allocations on this pool and
// update the caller's roots. Not safe to call concurrently with GC.
func (p *Pool) RegisterGC(fn func()) {
	p.gcFn = fn
}

// GC runs one generational cycle. With no callback registered it degrades to
// Clean. Otherwise: discard the temporary generation, flip the active bit so
// fresh default allocations land in the empty side, run the callback (both
// generations hold live data while it runs), then release the old
// generation, invalidating every pre-GC pointer.
//
// Requires quiescence on this pool. The registry lock is never held while
// the callback runs.
func (p *Pool) GC() {
	if p.gcFn == nil {
		metrics.GCRunsTotal.WithLabelValues("clean").Inc()
		p.Clean()
		return
	}
	start := time.Now()
	p.CleanTemp()
	p.active.Store(1 - p.active.Load())
	p.gcFn()
	p.CleanTemp()
	metrics.GCRunsTotal.WithLabelValues("copied").Inc()
	metrics.GCDurationSeconds.Observe(time.Since(start).Seconds())
	p.logger.Debug("mempool: gc cycle complete", "pool_id", p.id, "active_gen", p.active.Load())
}

// Clean releases both generations of every bound arena without flipping the
// active bit. Every pointer the pool ever produced is invalidated; the very
// next allocation starts from empty arenas. Requires quiescence.
func (p *Pool) Clean() {
	g := int(p.active.Load())
	p.releaseGen(g)
	p.releaseGen(1 - g)
	metrics.CleansTotal.WithLabelValues("clean").Inc()
}

// CleanTemp releases only the temporary generation. Default-generation
// pointers survive. Requires quiescence.
func (p *Pool) CleanTemp() {
	p.releaseGen(1 - int(p.active.Load()))
	metrics.CleansTotal.WithLabelValues("clean_temp").Inc()
}

// releaseGen empties every arena bound under gen. The arenas stay bound and
// reusable; only their chunks are dropped.
func (p *Pool) releaseGen(gen int) {
	registry.Global().ForEach(p.id, gen, func(h *arena.Handle) {
		if a := h.Load(); a != nil {
			a.Release()
		}
	})
}

// Close releases every arena bound under the pool's id across all
// goroutines, drops the registry entry and returns the id to the free set.
// Allocating on a closed pool is a misuse; quiescence is required just as
// for Clean. Only the first Close does this work; every later call does
// nothing and returns ErrClosed.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	for gen := 0; gen < 2; gen++ {
		registry.Global().ForEach(p.id, gen, func(h *arena.Handle) {
			h.ReleaseAndClear()
		})
	}
	registry.Global().ReleaseID(p.id)
	metrics.PoolsActive.Dec()
	p.logger.Debug("mempool: pool closed", "pool_id", p.id)
	return nil
}

// GenStats aggregates one generation's arenas across all goroutines.
type GenStats struct {
	Arenas    int
	SizeInUse int64
	Capacity  int64
	Chunks    int
}

// PoolStats is a point-in-time snapshot of a pool's memory. Meaningful only
// at quiescence; concurrent allocation can skew the byte counts.
type PoolStats struct {
	Active GenStats
	Temp   GenStats
}

// Stats walks the registry and aggregates arena usage per generation.
func (p *Pool) Stats() PoolStats {
	g := int(p.active.Load())
	return PoolStats{
		Active: p.genStats(g),
		Temp:   p.genStats(1 - g),
	}
}

func (p *Pool) genStats(gen int) GenStats {
	var gs GenStats
	registry.Global().ForEach(p.id, gen, func(h *arena.Handle) {
		a := h.Load()
		if a == nil {
			return
		}
		s := a.StatsSnapshot()
		gs.Arenas++
		gs.SizeInUse += s.SizeInUse
		gs.Capacity += s.Capacity
		gs.Chunks += s.NumChunks
	})
	return gs
}
