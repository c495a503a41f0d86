package api

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-photos/pkg/simplephotos"
)

// PhotoHandler handles HTTP requests for user photos using pkg/simplephotos
type PhotoHandler struct {
	service simplephotos.Service
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(service simplephotos.Service) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// Routes returns the routes for users and their photos
func (h *PhotoHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{userID}", h.GetUser)
	r.Delete("/{userID}", h.DeleteUser)

	r.Post("/{userID}/photo", h.UploadPhoto)
	r.Delete("/{userID}/photo", h.DeletePhoto)
	r.Get("/{userID}/photo/urls", h.RefreshPhotoURLs)

	return r
}

// UploadPhotoRequest is the request body for uploading a photo. Image is
// base64, with or without a data URL prefix.
type UploadPhotoRequest struct {
	Image    string `json:"image"`
	Nickname string `json:"nickname,omitempty"`
}

// UploadPhotoResponse is the response body for a completed upload
type UploadPhotoResponse struct {
	UserID        string                      `json:"user_id"`
	Images        map[string]string           `json:"images"`
	SizeReduction string                      `json:"size_reduction"`
	Cleanup       *simplephotos.CleanupReport `json:"cleanup,omitempty"`
}

// UploadPhoto replaces the photo set of a user
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UploadPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody(simplephotos.CodeValidationError, "invalid request body"))
		return
	}

	raw, err := decodeImage(req.Image)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody(simplephotos.CodeValidationError, "invalid base64 image data"))
		return
	}

	result, err := h.service.UploadPhoto(r.Context(), simplephotos.UploadPhotoRequest{
		UserID:   userID,
		CallerID: CallerID(r.Context()),
		Image:    raw,
		Nickname: req.Nickname,
	})
	if err != nil {
		slog.Error("photo upload failed", "user_id", userID, "error", err)
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, UploadPhotoResponse{
		UserID:        result.UserID,
		Images:        result.Images,
		SizeReduction: result.SizeReduction,
		Cleanup:       result.Cleanup,
	})
}

// DeletePhotoResponse is the response body for a photo deletion
type DeletePhotoResponse struct {
	UserID       string `json:"user_id"`
	DeletedCount int    `json:"deleted_count"`
}

// DeletePhoto removes every stored rendition of a user's photo
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.service.DeletePhoto(r.Context(), simplephotos.DeletePhotoRequest{
		UserID:   userID,
		CallerID: CallerID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, DeletePhotoResponse{
		UserID:       result.UserID,
		DeletedCount: result.DeletedCount,
	})
}

// RefreshResponse is the response body for re-issued photo URLs
type RefreshResponse struct {
	UserID string            `json:"user_id"`
	Images map[string]string `json:"images"`
	Failed map[string]string `json:"failed_versions,omitempty"`
}

// RefreshPhotoURLs re-issues access URLs for the current photo set
func (h *PhotoHandler) RefreshPhotoURLs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.service.RefreshPhotoURLs(r.Context(), simplephotos.RefreshPhotoURLsRequest{
		UserID:   userID,
		CallerID: CallerID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, RefreshResponse{
		UserID: result.UserID,
		Images: result.Images,
		Failed: result.Failed,
	})
}

// UserResponse is the response body for a user lookup
type UserResponse struct {
	UserID    string            `json:"user_id"`
	Nickname  string            `json:"nickname"`
	HasPhotos bool              `json:"has_photos"`
	Images    map[string]string `json:"images,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// GetUser returns the public view of a user record
func (h *PhotoHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.service.UserDetails(r.Context(), simplephotos.UserDetailsRequest{
		UserID:   userID,
		CallerID: CallerID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, UserResponse{
		UserID:    result.UserID,
		Nickname:  result.Nickname,
		HasPhotos: result.HasPhotos,
		Images:    result.Images,
		CreatedAt: result.CreatedAt,
		UpdatedAt: result.UpdatedAt,
	})
}

// DeleteUserResponse is the response body for a user deletion
type DeleteUserResponse struct {
	UserID        string                  `json:"user_id"`
	PhotosDeleted int                     `json:"photos_deleted"`
	CleanupErrors []simplephotos.KeyError `json:"cleanup_errors,omitempty"`
}

// DeleteUser removes a user's record and photos. Requires ?confirm=true.
func (h *PhotoHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.service.DeleteUser(r.Context(), simplephotos.DeleteUserRequest{
		UserID:   userID,
		CallerID: CallerID(r.Context()),
		Confirm:  r.URL.Query().Get("confirm") == "true",
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, DeleteUserResponse{
		UserID:        result.UserID,
		PhotosDeleted: result.PhotosDeleted,
		CleanupErrors: result.CleanupErrors,
	})
}

// decodeImage decodes base64 image data, accepting an optional data URL
// prefix (data:image/jpeg;base64,...).
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
}
