package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-photos/pkg/simplephotos"
)

// NicknameHandler handles nickname validity and availability checks
type NicknameHandler struct {
	service simplephotos.Service
}

// NewNicknameHandler creates a new nickname handler
func NewNicknameHandler(service simplephotos.Service) *NicknameHandler {
	return &NicknameHandler{service: service}
}

// Routes returns the routes for nickname checks
func (h *NicknameHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/check", h.Check)
	return r
}

// NicknameCheckResponse is the response body for a nickname check
type NicknameCheckResponse struct {
	Nickname  string `json:"nickname"`
	Valid     bool   `json:"valid"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Check reports whether ?nickname= is valid and unclaimed
func (h *NicknameHandler) Check(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("nickname")
	if raw == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody(simplephotos.CodeValidationError, "nickname query parameter is required"))
		return
	}

	result, err := h.service.CheckNickname(r.Context(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, NicknameCheckResponse{
		Nickname:  result.Nickname,
		Valid:     result.Valid,
		Available: result.Available,
		Reason:    result.Reason,
	})
}
