package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/muninn/pkg/pool"
	"github.com/ssargent/muninn/pkg/reader"
	"github.com/ssargent/muninn/pkg/record"
)

// Config holds ingestion pipeline configuration
type Config struct {
	Pool          *pool.RecordPool // Record source shared with the parser; nil allocates directly
	Logger        *logrus.Entry    // Sink for ingestion diagnostics
	PrescanTotals bool             // Estimate total lines up front so progress carries a percentage
}

// RecordIterator provides streaming access to parsed records. Callers
// own each yielded record and are responsible for returning it to the
// pool when finished.
type RecordIterator interface {
	Next() bool
	Record() *record.Record
	Err() error
	Close() error
}

// Progress is a point-in-time snapshot of an ingestion pass
type Progress struct {
	Path           string    `json:"path"`            // Source of the line most recently read
	LinesRead      int64     `json:"lines_read"`      // Raw lines consumed so far, across the whole pass
	TotalLines     int64     `json:"total_lines"`     // Pre-scan estimate for the pass; 0 when unknown
	RecordsEmitted int64     `json:"records_emitted"` // Records yielded to the consumer
	Percent        float64   `json:"percent"`         // LinesRead over TotalLines; 0 when no estimate exists
	Done           bool      `json:"done"`            // Pass finished: drained, failed or cancelled
	UpdatedAt      time.Time `json:"updated_at"`      // Publication time of this snapshot
}

// Errors
var (
	// ErrInvalidArgument indicates an empty or unusable source path
	ErrInvalidArgument = &PipelineError{"invalid argument"}

	// ErrCancelled indicates cooperative cancellation was observed
	// between lines
	ErrCancelled = &PipelineError{"parse cancelled"}
)

// Reader failure kinds resurface unchanged, aliased here so callers
// can test every error this package returns without importing
// pkg/reader.
var (
	ErrNotFound = reader.ErrNotFound
	ErrIO       = reader.ErrIO
)

// PipelineError represents an ingestion failure
type PipelineError struct {
	Message string
}

func (e *PipelineError) Error() string {
	return e.Message
}
