package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/services/pipeline"
)

// StatusHandler handles HTTP requests for pipeline status
type StatusHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(orchestrator *pipeline.Orchestrator, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status, err := h.orchestrator.Status(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to build status snapshot")
		WriteError(w, http.StatusInternalServerError, "Failed to read pipeline status")
		return
	}

	WriteJSON(w, http.StatusOK, status)
}
