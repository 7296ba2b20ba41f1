package mempool

import (
	"log/slog"

	"github.com/kelseyhightower/envconfig"

	"github.com/23skdu/mempool/internal/arena"
)

// Config holds per-pool tuning knobs.
type Config struct {
	// ChunkSize is the arena chunk size in bytes.
	ChunkSize int `envconfig:"MEMPOOL_CHUNK_SIZE" default:"65536"`
	// MaxBytes caps the total chunk bytes of each arena; 0 means unbounded.
	// Exceeding the cap surfaces ErrOOM to the allocating caller.
	MaxBytes int64 `envconfig:"MEMPOOL_MAX_BYTES" default:"0"`
	// Logger receives pool lifecycle events. nil selects slog.Default().
	Logger *slog.Logger `ignored:"true"`
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{ChunkSize: arena.DefaultChunkSize}
}

// ConfigFromEnv builds a Config from MEMPOOL_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
