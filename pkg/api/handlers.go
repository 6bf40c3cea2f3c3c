package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/muninn/pkg/history"
	"github.com/ssargent/muninn/pkg/pipeline"
)

// handleHealthz reports liveness
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleReadyz reports readiness to accept parse jobs
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "ready"})
}

// handleStartParse launches an asynchronous parse job
func (s *Server) handleStartParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Path) == "" {
		sendError(w, "path is required", http.StatusBadRequest)
		return
	}

	id, err := s.jobs.Start(req.Path, req.Pattern)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNotFound):
			sendError(w, fmt.Sprintf("Source not found: %v", err), http.StatusNotFound)
		case errors.Is(err, pipeline.ErrInvalidArgument):
			sendError(w, fmt.Sprintf("Invalid parse request: %v", err), http.StatusBadRequest)
		default:
			sendError(w, fmt.Sprintf("Failed to start parse job: %v", err), http.StatusInternalServerError)
		}
		return
	}

	sendJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": JobRunning})
}

// handleParseStatus returns a live snapshot of a parse job
func (s *Server) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshot, ok := s.jobs.Snapshot(id)
	if !ok {
		sendError(w, "Job not found", http.StatusNotFound)
		return
	}

	sendSuccess(w, snapshot)
}

// handleCancelParse requests cancellation of a running parse job
func (s *Server) handleCancelParse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.jobs.Cancel(id) {
		sendError(w, "Job not found", http.StatusNotFound)
		return
	}

	sendSuccess(w, map[string]string{"id": id, "message": "Cancellation requested"})
}

// handleListSessions lists recorded parse sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		sendError(w, "Session history is disabled", http.StatusServiceUnavailable)
		return
	}

	sessions, err := s.sessions.List()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list sessions: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"sessions": sessions})
}

// handleGetSession returns one recorded session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		sendError(w, "Session history is disabled", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")

	session, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			sendError(w, "Session not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to get session: %v", err), http.StatusInternalServerError)
		}
		return
	}

	sendSuccess(w, session)
}

// handleDeleteSession removes one recorded session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		sendError(w, "Session history is disabled", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")

	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			sendError(w, "Session not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to delete session: %v", err), http.StatusInternalServerError)
		}
		return
	}

	sendSuccess(w, map[string]string{"message": "Session deleted successfully"})
}

// handlePoolStats returns a record pool statistics snapshot
func (s *Server) handlePoolStats(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		sendError(w, "No record pool configured", http.StatusServiceUnavailable)
		return
	}

	stats := s.pool.Statistics()
	if s.metrics != nil {
		s.metrics.SetPoolHitRatio(stats.HitRatio)
	}

	sendSuccess(w, stats)
}
