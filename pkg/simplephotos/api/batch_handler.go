package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-photos/pkg/simplephotos"
)

// BatchHandler handles batch deletion requests
type BatchHandler struct {
	service simplephotos.Service

	// TestModeAllowed gates the test_mode flag; production deployments keep
	// it off so callers cannot skip authorization.
	TestModeAllowed bool
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(service simplephotos.Service) *BatchHandler {
	return &BatchHandler{service: service}
}

// Routes returns the routes for batch operations
func (h *BatchHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/delete", h.BatchDelete)
	return r
}

// BatchDeleteRequest is the request body for a batch deletion
type BatchDeleteRequest struct {
	UserIDs  []string `json:"user_ids"`
	Confirm  bool     `json:"confirm"`
	TestMode bool     `json:"test_mode,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// BatchMetadata echoes the audit fields of the request
type BatchMetadata struct {
	DeletionReason string `json:"deletion_reason"`
	TestMode       bool   `json:"test_mode"`
}

// BatchDeleteResponse pairs per-user outcomes with the aggregate summary
type BatchDeleteResponse struct {
	Results  []simplephotos.DeletionOutcome `json:"results"`
	Summary  simplephotos.BatchSummary      `json:"summary"`
	Metadata BatchMetadata                  `json:"metadata"`
}

// BatchDelete removes up to the batch limit of users in one call. The
// status is 200 when every user succeeded, 207 on partial success and 400
// when every user failed.
func (h *BatchHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody(simplephotos.CodeValidationError, "invalid request body"))
		return
	}

	testMode := req.TestMode && h.TestModeAllowed
	result, err := h.service.BatchDeleteUsers(r.Context(), simplephotos.BatchDeleteRequest{
		UserIDs:  req.UserIDs,
		CallerID: CallerID(r.Context()),
		Confirm:  req.Confirm,
		TestMode: testMode,
		Reason:   req.Reason,
	})
	if err != nil {
		slog.Warn("batch deletion rejected", "error", err)
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	switch {
	case result.Summary.SuccessfulCount == 0:
		status = http.StatusBadRequest
	case result.Summary.FailedCount > 0:
		status = http.StatusMultiStatus
	}

	render.Status(r, status)
	render.JSON(w, r, BatchDeleteResponse{
		Results: result.Outcomes,
		Summary: result.Summary,
		Metadata: BatchMetadata{
			DeletionReason: result.Reason,
			TestMode:       testMode,
		},
	})
}
