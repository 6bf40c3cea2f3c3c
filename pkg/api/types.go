package api

import (
	"time"

	"github.com/ssargent/muninn/pkg/pipeline"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ParseRequest represents a parse job submission
type ParseRequest struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern,omitempty"`
}

// JobSnapshot represents the observable state of a parse job
type JobSnapshot struct {
	ID           string            `json:"id"`
	Path         string            `json:"path"`
	Pattern      string            `json:"pattern,omitempty"`
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at,omitempty"`
	InfoCount    int64             `json:"info_count"`
	WarningCount int64             `json:"warning_count"`
	ErrorCount   int64             `json:"error_count"`
	Error        string            `json:"error,omitempty"`
	Progress     pipeline.Progress `json:"progress"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Listen        string // Address to bind, host:port
	PrescanTotals bool   // Estimate totals before each job so progress carries a percentage
}
