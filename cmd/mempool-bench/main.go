package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/mempool"
)

var (
	mode     = flag.String("mode", "tree", "Benchmark mode: 'tree', 'churn' or 'gc'")
	workers  = flag.Int("workers", 4, "Number of concurrent workers")
	duration = flag.Duration("duration", 10*time.Second, "Duration of the benchmark")
	nodes    = flag.Int("nodes", 1_000_000, "Nodes per tree (tree and gc modes)")
)

// treeNode is the allocation unit for the tree workloads: a 4-ary node
// living entirely in pool memory.
type treeNode struct {
	Value int
	Kids  [4]*treeNode
}

func main() {
	flag.Parse()

	// .env is optional; environment wins over defaults.
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := ValidateEnv(&env); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if env.MetricsAddr != "" {
		go func() {
			logger.Info("Starting metrics server", "address", env.MetricsAddr)
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(env.MetricsAddr, nil); err != nil {
				logger.Error("Failed to start metrics server", "error", err)
			}
		}()
	}

	fmt.Printf("Starting benchmark:\n")
	fmt.Printf("  Mode:       %s\n", *mode)
	fmt.Printf("  Workers:    %d\n", *workers)
	fmt.Printf("  Duration:   %s\n", *duration)
	fmt.Printf("  Chunk Size: %d\n", env.ChunkSize)

	cfg := mempool.DefaultConfig()
	cfg.ChunkSize = env.ChunkSize
	cfg.Logger = logger

	var ops atomic.Int64
	start := time.Now()

	switch *mode {
	case "tree":
		runTree(cfg, logger, &ops)
	case "churn":
		runChurn(cfg, logger, &ops)
	case "gc":
		runGC(cfg, logger, &ops)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	total := ops.Load()
	fmt.Printf("Completed %d ops in %s (%.0f ops/sec)\n",
		total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
}

// runTree gives every worker its own pool; each builds 4-ary trees in its
// goroutine-local arena and bulk-cleans between trees, so quiescence for
// Clean is per worker.
func runTree(cfg mempool.Config, logger *slog.Logger, ops *atomic.Int64) {
	deadline := time.Now().Add(*duration)
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer mempool.Detach()
			pool, err := mempool.New(cfg)
			if err != nil {
				logger.Error("Failed to create pool", "error", err)
				return
			}
			defer pool.Close()
			for time.Now().Before(deadline) {
				if _, err := buildTree(pool, *nodes); err != nil {
					logger.Error("Tree build failed", "error", err)
					return
				}
				ops.Add(int64(*nodes))
				pool.Clean()
			}
		}()
	}
	wg.Wait()
}

// runChurn gives every worker its own pool so each can CleanTemp without
// coordinating quiescence with the others.
func runChurn(cfg mempool.Config, logger *slog.Logger, ops *atomic.Int64) {
	deadline := time.Now().Add(*duration)
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer mempool.Detach()
			pool, err := mempool.New(cfg)
			if err != nil {
				logger.Error("Failed to create pool", "error", err)
				return
			}
			defer pool.Close()
			for time.Now().Before(deadline) {
				for i := 0; i < 1024; i++ {
					if _, err := mempool.NewTempArray[uint64](pool, 1024); err != nil {
						logger.Error("Temp alloc failed", "error", err)
						return
					}
				}
				pool.CleanTemp()
				ops.Add(1024)
			}
		}()
	}
	wg.Wait()
}

// runGC builds one tree, then drives generational cycles with a copy
// callback on a single goroutine (GC requires quiescence).
func runGC(cfg mempool.Config, logger *slog.Logger, ops *atomic.Int64) {
	defer mempool.Detach()
	pool, err := mempool.New(cfg)
	if err != nil {
		logger.Error("Failed to create pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	root, err := buildTree(pool, *nodes)
	if err != nil {
		logger.Error("Tree build failed", "error", err)
		os.Exit(1)
	}

	pool.RegisterGC(func() {
		root = copyTree(pool, root)
	})

	deadline := time.Now().Add(*duration)
	for time.Now().Before(deadline) {
		pool.GC()
		ops.Add(1)
	}
	logger.Info("GC benchmark done", "cycles", ops.Load(), "root_value", root.Value)
}

// buildTree fills a complete 4-ary tree of n nodes breadth-first.
func buildTree(pool *mempool.Pool, n int) (*treeNode, error) {
	root, err := mempool.NewObject[treeNode](pool)
	if err != nil {
		return nil, err
	}
	root.Value = 0
	queue := []*treeNode{root}
	made := 1
	for made < n {
		next := queue[0]
		queue = queue[1:]
		for k := 0; k < 4 && made < n; k++ {
			child, err := mempool.NewObject[treeNode](pool)
			if err != nil {
				return nil, err
			}
			child.Value = made
			next.Kids[k] = child
			queue = append(queue, child)
			made++
		}
	}
	return root, nil
}

// copyTree re-allocates the whole tree with default allocations; during GC
// those land in the freshly flipped active generation.
func copyTree(pool *mempool.Pool, old *treeNode) *treeNode {
	if old == nil {
		return nil
	}
	n, err := mempool.NewObject[treeNode](pool)
	if err != nil {
		panic(err)
	}
	n.Value = old.Value
	for k, kid := range old.Kids {
		n.Kids[k] = copyTree(pool, kid)
	}
	return n
}
