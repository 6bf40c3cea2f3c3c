package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	pool "github.com/jolestar/go-commons-pool"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/muninn/pkg/record"
)

// RecordPool recycles parsed log records to bound allocation pressure
// under sustained parsing. Idle records are stored FIFO up to the
// configured capacity; returns beyond capacity are dropped. Get and
// Return are safe for concurrent use from multiple goroutines.
type RecordPool struct {
	capacity int
	inner    *pool.ObjectPool
	log      *logrus.Entry

	closed  atomic.Bool
	gets    atomic.Int64
	returns atomic.Int64
	misses  atomic.Int64
	created atomic.Int64
}

// NewRecordPool creates a record pool with the given configuration
func NewRecordPool(cfg *Config) *RecordPool {
	if cfg == nil {
		cfg = &Config{}
	}

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < MinCapacity {
		capacity = MinCapacity
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	p := &RecordPool{
		capacity: capacity,
		log:      log,
	}

	// Default config with an unbounded total, a FIFO idle queue and
	// non-blocking borrows; idle retention is the only bound.
	poolConfig := pool.ObjectPoolConfig{
		LIFO:                    false,
		MaxTotal:                -1,
		MaxIdle:                 capacity,
		MinIdle:                 0,
		BlockWhenExhausted:      false,
		TimeBetweenEvictionRuns: 0,
	}

	factory := pool.NewPooledObjectFactory(
		func(context.Context) (interface{}, error) {
			p.created.Add(1)
			p.misses.Add(1)
			return record.New(), nil
		},
		nil,
		nil,
		nil,
		func(_ context.Context, object *pool.PooledObject) error {
			if rec, ok := object.Object.(*record.Record); ok {
				rec.Reset()
			}
			return nil
		})

	p.inner = pool.NewObjectPool(context.Background(), factory, &poolConfig)

	return p
}

// Get returns a ready-to-use record, recycled from the idle store when
// one is available and newly constructed otherwise. It fails with
// ErrDisposed after Close.
func (p *RecordPool) Get() (*record.Record, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("get record: %w", ErrDisposed)
	}

	object, err := p.inner.BorrowObject(context.Background())
	if err != nil {
		if p.closed.Load() {
			return nil, fmt.Errorf("get record: %w", ErrDisposed)
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	p.gets.Add(1)

	return object.(*record.Record), nil
}

// Return resets a record and places it back in the idle store. Records
// beyond the configured capacity are dropped. A nil record or a return
// after Close is ignored (logged, never fatal).
func (p *RecordPool) Return(rec *record.Record) {
	if rec == nil {
		p.log.Debug("ignoring nil record returned to pool")
		return
	}
	if p.closed.Load() {
		p.log.Debug("dropping record returned after pool close")
		return
	}

	if err := p.inner.ReturnObject(context.Background(), rec); err != nil {
		p.log.WithError(err).Warn("error returning record to pool")
		return
	}

	p.returns.Add(1)
}

// AvailableCount returns the number of idle records in the pool
func (p *RecordPool) AvailableCount() int {
	if p.closed.Load() {
		return 0
	}

	return p.inner.GetNumIdle()
}

// Statistics returns an atomic snapshot of the pool counters
func (p *RecordPool) Statistics() Statistics {
	gets := p.gets.Load()
	misses := p.misses.Load()

	hits := gets - misses
	if hits < 0 {
		hits = 0
	}

	ratio := 0.0
	if gets > 0 {
		ratio = float64(hits) / float64(gets)
	}

	return Statistics{
		TotalGets:             gets,
		TotalReturns:          p.returns.Load(),
		PoolHits:              hits,
		PoolMisses:            misses,
		CurrentPoolSize:       p.AvailableCount(),
		MaxPoolSize:           p.capacity,
		TotalInstancesCreated: p.created.Load(),
		HitRatio:              ratio,
		MemorySavedBytes:      hits * approxRecordBytes,
	}
}

// Clear drains all idle records. Records currently checked out are not
// affected and may still be returned.
func (p *RecordPool) Clear() {
	if p.closed.Load() {
		return
	}

	p.inner.Clear(context.Background())
}

// Close releases all idle records and marks the pool unusable. Further
// Get calls fail with ErrDisposed; further Return calls are dropped.
func (p *RecordPool) Close() {
	if p.closed.Swap(true) {
		return
	}

	p.inner.Close(context.Background())
}
