package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lekha/internal/service"
)

// SegmentHandler serves segment payloads and image crops of the active project.
type SegmentHandler struct {
	session service.SessionService
}

// NewSegmentHandler creates a new SegmentHandler.
func NewSegmentHandler(session service.SessionService) *SegmentHandler {
	return &SegmentHandler{session: session}
}

// Get handles GET /api/v1/segments/:id?view=
func (h *SegmentHandler) Get(c *gin.Context) {
	view, ok := parseView(c)
	if !ok {
		return
	}
	payload, err := h.session.Open(c.Request.Context(), c.Param("id"), view)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, payload)
}

// Image handles GET /api/v1/segments/:id/image?view=
func (h *SegmentHandler) Image(c *gin.Context) {
	view, ok := parseView(c)
	if !ok {
		return
	}
	data, err := h.session.Image(c.Request.Context(), c.Param("id"), view)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}
