package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/pipeline"
)

// GenerateHandler handles HTTP requests that trigger pipeline runs
type GenerateHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       arbor.ILogger
}

// NewGenerateHandler creates a new GenerateHandler
func NewGenerateHandler(orchestrator *pipeline.Orchestrator, logger arbor.ILogger) *GenerateHandler {
	return &GenerateHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// GenerateHandler handles POST /api/generate
func (h *GenerateHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	result := h.orchestrator.GenerateOne(r.Context())
	WriteJSON(w, statusForResult(result), result)
}

type batchRequest struct {
	Count int `json:"count"`
}

// GenerateBatchHandler handles POST /api/generate/batch
func (h *GenerateHandler) GenerateBatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Count < 1 {
		WriteError(w, http.StatusBadRequest, "count must be at least 1")
		return
	}

	result := h.orchestrator.GenerateBatch(r.Context(), req.Count)
	WriteJSON(w, http.StatusOK, result)
}

// ResetCycleHandler handles POST /api/cycle/reset
func (h *GenerateHandler) ResetCycleHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.orchestrator.ResetCycle(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Cycle reset failed")
		WriteError(w, http.StatusInternalServerError, "Failed to reset cycle")
		return
	}

	WriteSuccess(w, "Cycle reset, all fragments available again")
}

// statusForResult maps a pipeline outcome to an HTTP status code.
func statusForResult(result *models.GenerateResult) int {
	if result.Success {
		return http.StatusOK
	}

	switch result.FailureReason {
	case models.ReasonNoContentAvailable, models.ReasonLowQualityPool:
		return http.StatusConflict
	case models.ReasonGenerationService, models.ReasonIncompleteGeneration:
		return http.StatusBadGateway
	case models.ReasonCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
