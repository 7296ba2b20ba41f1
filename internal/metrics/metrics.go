package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PoolsActive tracks the number of currently live pools
	PoolsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mempool_pools_active",
			Help: "Number of currently live memory pools",
		},
	)

	// PoolsCreatedTotal counts pool creations over the process lifetime
	PoolsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mempool_pools_created_total",
			Help: "Total number of memory pools created",
		},
	)

	// ArenaChunkBytes tracks bytes currently held in arena chunks
	ArenaChunkBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mempool_arena_chunk_bytes",
			Help: "Total bytes currently held in arena chunks across all pools",
		},
	)

	// ArenaChunksTotal counts chunk allocations (arena growth events)
	ArenaChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mempool_arena_chunks_total",
			Help: "Total number of chunks allocated by arenas",
		},
	)

	// ArenaReleasesTotal counts whole-arena release operations
	ArenaReleasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mempool_arena_releases_total",
			Help: "Total number of whole-arena release operations",
		},
	)

	// GCRunsTotal counts generational GC cycles by outcome
	GCRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mempool_gc_runs_total",
			Help: "Total number of generational GC cycles",
		},
		[]string{"outcome"}, // "copied" when a callback ran, "clean" when none registered
	)

	// GCDurationSeconds observes wall time of GC cycles
	GCDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mempool_gc_duration_seconds",
			Help:    "Duration of generational GC cycles",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// CleansTotal counts bulk reclamation operations by kind
	CleansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mempool_cleans_total",
			Help: "Total number of bulk reclamation operations",
		},
		[]string{"kind"}, // "clean" or "clean_temp"
	)

	// RegistryBoundHandles tracks arena handles currently bound in the registry
	RegistryBoundHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mempool_registry_bound_handles",
			Help: "Number of arena handles currently bound in the pool registry",
		},
	)
)
