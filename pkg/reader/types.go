package reader

// DefaultPattern matches plain log files during directory discovery.
const DefaultPattern = "*.log"

// Line is a single raw text line tagged with its origin
type Line struct {
	Text   string // Line content without the terminator
	Number int    // 1-based position within the source file
	Path   string // Originating file path
}

// LineIterator provides streaming access to raw text lines
type LineIterator interface {
	Next() bool
	Line() Line
	Err() error
	Close() error
}

// Errors
var (
	// ErrNotFound indicates the target path did not exist at open time
	ErrNotFound = &ReadError{"file not found"}

	// ErrIO indicates a read failure after the source was opened
	ErrIO = &ReadError{"i/o failure"}
)

// ReadError represents a file reading failure
type ReadError struct {
	Message string
}

func (e *ReadError) Error() string {
	return e.Message
}
