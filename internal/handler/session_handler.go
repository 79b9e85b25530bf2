package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lekha/internal/domain"
	"lekha/internal/service"
)

// SessionHandler handles the reviewer's position: project, view and save.
type SessionHandler struct {
	session service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(session service.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

// State handles GET /api/v1/state
func (h *SessionHandler) State(c *gin.Context) {
	state, err := h.session.State(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, state)
}

type switchProjectRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
}

// SwitchProject handles POST /api/v1/project
func (h *SessionHandler) SwitchProject(c *gin.Context) {
	var req switchProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	state, err := h.session.SwitchProject(c.Request.Context(), req.ProjectID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, state)
}

type switchViewRequest struct {
	View      string `json:"view" binding:"required"`
	SegmentID string `json:"segment_id"`
}

// SwitchView handles POST /api/v1/view
func (h *SessionHandler) SwitchView(c *gin.Context) {
	var req switchViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	view, err := domain.ParseView(req.View)
	if err != nil {
		HandleError(c, err)
		return
	}

	payload, err := h.session.SwitchView(c.Request.Context(), view, req.SegmentID)
	if err != nil {
		HandleError(c, err)
		return
	}
	// A nil payload is sent as null: the view has nothing to edit.
	RespondOK(c, payload)
}

type saveRequest struct {
	SegmentID string `json:"segment_id" binding:"required"`
	View      string `json:"view" binding:"required"`
	Text      string `json:"text"`
	Action    string `json:"action"`
}

// Save handles POST /api/v1/save
func (h *SessionHandler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	view, err := domain.ParseView(req.View)
	if err != nil {
		HandleError(c, err)
		return
	}
	action, err := domain.ParseSaveAction(req.Action)
	if err != nil {
		HandleError(c, err)
		return
	}

	payload, err := h.session.Save(c.Request.Context(), service.SaveInput{
		SegmentID: req.SegmentID,
		View:      view,
		Text:      req.Text,
		Action:    action,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, payload)
}
