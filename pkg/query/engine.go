package query

import (
	"context"
	"fmt"
	"os"

	"github.com/ssargent/muninn/pkg/pipeline"
	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/record"
)

// Engine executes filters over ingestion pipelines
type Engine struct {
	pipeline *pipeline.Pipeline
	pool     *pool.RecordPool
}

// NewEngine creates a query engine over an ingestion pipeline. The
// pool, when non-nil, receives the records the filter drops.
func NewEngine(pl *pipeline.Pipeline, recordPool *pool.RecordPool) *Engine {
	return &Engine{
		pipeline: pl,
		pool:     recordPool,
	}
}

// Run parses source and yields only the records matching the filter.
// A directory source is walked with pattern; file sources ignore it.
func (e *Engine) Run(ctx context.Context, source, pattern string, filter Filter) (pipeline.RecordIterator, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	var (
		inner pipeline.RecordIterator
		err   error
	)
	if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
		inner, err = e.pipeline.ParseDirectory(ctx, source, pattern)
	} else {
		inner, err = e.pipeline.Parse(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	return &filterIterator{
		inner:  inner,
		filter: filter,
		pool:   e.pool,
	}, nil
}

// filterIterator forwards matching records and recycles the rest
type filterIterator struct {
	inner  pipeline.RecordIterator
	filter Filter
	pool   *pool.RecordPool
}

// Next advances to the next matching record
func (it *filterIterator) Next() bool {
	for it.inner.Next() {
		rec := it.inner.Record()
		if it.filter.Matches(rec) {
			return true
		}
		if it.pool != nil {
			it.pool.Return(rec)
		}
	}

	return false
}

// Record returns the current matching record
func (it *filterIterator) Record() *record.Record {
	return it.inner.Record()
}

// Err returns the error that stopped iteration, if any
func (it *filterIterator) Err() error {
	return it.inner.Err()
}

// Close releases the underlying iterator
func (it *filterIterator) Close() error {
	return it.inner.Close()
}
