// Package apiutil maps engine errors onto HTTP responses.
package apiutil

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"memecanvas/core"
)

// statusFor maps the error taxonomy to status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidGeometry), errors.Is(err, core.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrObjectLocked):
		return http.StatusLocked
	case errors.Is(err, core.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrAssetLoadTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrAssetLoadError):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes a JSON error response with the status the error maps to.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, statusFor(err))
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

// ErrorMessage writes a JSON error response with an explicit status.
func ErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
