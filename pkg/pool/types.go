package pool

import (
	"github.com/sirupsen/logrus"
)

// Capacity bounds for the idle record store.
const (
	DefaultCapacity = 1000
	MinCapacity     = 10
)

// approxRecordBytes is the per-instance struct cost used for the
// memory-saved estimate. Reused message capacity is not counted.
const approxRecordBytes = 160

// Errors
var (
	// ErrDisposed is returned when the pool is used after Close
	ErrDisposed = &PoolError{"record pool is disposed"}
)

// PoolError represents a record pool failure
type PoolError struct {
	Message string
}

func (e *PoolError) Error() string {
	return e.Message
}

// Config holds record pool configuration
type Config struct {
	Capacity int           // Max idle records retained; default 1000, floor 10
	Logger   *logrus.Entry // Sink for non-fatal pool diagnostics
}

// Statistics is a point-in-time snapshot of pool counters
type Statistics struct {
	TotalGets             int64   `json:"total_gets"`
	TotalReturns          int64   `json:"total_returns"`
	PoolHits              int64   `json:"pool_hits"`
	PoolMisses            int64   `json:"pool_misses"`
	CurrentPoolSize       int     `json:"current_pool_size"`
	MaxPoolSize           int     `json:"max_pool_size"`
	TotalInstancesCreated int64   `json:"total_instances_created"`
	HitRatio              float64 `json:"hit_ratio"`
	MemorySavedBytes      int64   `json:"memory_saved_bytes"`
}
