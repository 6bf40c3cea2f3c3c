package record

import (
	"fmt"
	"strings"
	"time"
)

// Level is the severity classification of a parsed log line
type Level string

// Severity levels assigned by the classifier.
const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// ParseLevel converts a user-supplied severity name into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	}

	return "", fmt.Errorf("unknown level %q", s)
}

// Record represents a single parsed log line with source metadata
type Record struct {
	Timestamp  time.Time // Parsed timestamp prefix, or ingestion time as fallback
	Level      Level     // Severity classification
	Message    string    // Line content after the timestamp prefix
	SourceFile string    // Originating file path
	LineNumber int       // 1-based position within the source file

	// Diagnostic fields, populated by downstream consumers.
	CorrelationID  string
	ErrorClass     string
	StackTrace     string
	Recommendation string
}

// New creates an empty record ready to be populated by the parser
func New() *Record {
	return &Record{}
}

// Reset clears every mutable field so the record can be handed out again
func (r *Record) Reset() {
	r.Timestamp = time.Time{}
	r.Level = ""
	r.Message = ""
	r.SourceFile = ""
	r.LineNumber = 0
	r.CorrelationID = ""
	r.ErrorClass = ""
	r.StackTrace = ""
	r.Recommendation = ""
}
