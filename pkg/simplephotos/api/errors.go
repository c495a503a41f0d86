package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-photos/pkg/simplephotos"
	"github.com/tendant/simple-photos/pkg/simplephotos/nickname"
)

// ErrorResponse is the error envelope for every non-2xx body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"error_code,omitempty"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code}
}

// writeServiceError maps service errors onto HTTP statuses and writes the
// envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := ""

	var imgErr *simplephotos.ImageProcessingError

	switch {
	case errors.Is(err, simplephotos.ErrUserNotFound):
		status = http.StatusNotFound
		code = simplephotos.CodeUserNotFound
	case errors.Is(err, simplephotos.ErrNoPhotos):
		status = http.StatusNotFound
	case errors.Is(err, simplephotos.ErrNotAuthorized):
		status = http.StatusForbidden
		code = simplephotos.CodeUnauthorizedDeletion
	case errors.Is(err, simplephotos.ErrNicknameTaken):
		status = http.StatusConflict
	case errors.Is(err, simplephotos.ErrImageTooLarge),
		errors.Is(err, simplephotos.ErrNicknameRequired),
		errors.Is(err, simplephotos.ErrNoImageData),
		errors.Is(err, simplephotos.ErrConfirmationRequired),
		errors.Is(err, simplephotos.ErrBatchEmpty),
		errors.Is(err, simplephotos.ErrBatchTooLarge),
		errors.Is(err, nickname.ErrInvalid):
		status = http.StatusBadRequest
		code = simplephotos.CodeValidationError
	case errors.As(err, &imgErr):
		status = http.StatusBadRequest
		code = simplephotos.CodeValidationError
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, errorBody(code, msg))
}
