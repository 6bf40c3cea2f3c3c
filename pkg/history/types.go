package history

import "time"

// Session status values.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Errors
var (
	ErrNotFound = &HistoryError{"session not found"}
)

// Session represents one recorded parse run
type Session struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	Pattern        string    `json:"pattern,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	LinesRead      int64     `json:"lines_read"`
	RecordsEmitted int64     `json:"records_emitted"`
	InfoCount      int64     `json:"info_count"`
	WarningCount   int64     `json:"warning_count"`
	ErrorCount     int64     `json:"error_count"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
}

// HistoryError represents history store specific errors
type HistoryError struct {
	Message string
}

func (e *HistoryError) Error() string {
	return e.Message
}
