package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lekha/internal/domain"
	"lekha/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response. A nil data value is sent as
// JSON null, meaning there is nothing to edit.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrSegmentNotFound):
		return http.StatusNotFound, "SEGMENT_NOT_FOUND", "segment not found"
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "PROJECT_NOT_FOUND", "project not found"
	case errors.Is(err, domain.ErrPageNotFound):
		return http.StatusNotFound, "PAGE_NOT_FOUND", "page not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "NO_ACTIVE_PROJECT", "no project is active; select a project first"
	case errors.Is(err, domain.ErrInvalidView):
		return http.StatusBadRequest, "INVALID_VIEW", "view must be line or word"
	case errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest, "INVALID_ACTION", "action must be save, save_and_next, save_and_prev or save_and_next_issue"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "format must be txt, csv or xlsx"
	case errors.Is(err, domain.ErrUnsupportedPage):
		return http.StatusBadRequest, "UNSUPPORTED_PAGE", "unsupported page image type"
	case errors.Is(err, domain.ErrIngestionFailed):
		return http.StatusUnprocessableEntity, "INGESTION_FAILED", "page ingestion failed"
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, "ENGINE_UNAVAILABLE", "ocr engine unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		slog.ErrorContext(c.Request.Context(), "internal error",
			"request_id", middleware.GetRequestID(c),
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	RespondError(c, status, code, msg)
}

// parseView reads the view query parameter. An absent view defaults to
// line; an unknown one writes a 400 response and returns false.
func parseView(c *gin.Context) (domain.View, bool) {
	view, err := domain.ParseView(c.Query("view"))
	if err != nil {
		HandleError(c, err)
		return "", false
	}
	return view, true
}
