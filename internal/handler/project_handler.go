package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lekha/internal/domain"
	"lekha/internal/export"
	"lekha/internal/service"
)

// ProjectHandler handles project listing and export.
type ProjectHandler struct {
	projects service.ProjectService
	session  service.SessionService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects service.ProjectService, session service.SessionService) *ProjectHandler {
	return &ProjectHandler{projects: projects, session: session}
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, projects)
}

// Export handles GET /api/v1/export?format=txt|csv|xlsx
// It exports the project named by project_id, or the active project.
func (h *ProjectHandler) Export(c *gin.Context) {
	format, err := domain.ParseExportFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	projectID := c.Query("project_id")
	if projectID == "" {
		projectID, err = h.session.ActiveProject(ctx)
		if err != nil {
			HandleError(c, err)
			return
		}
	}
	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		HandleError(c, err)
		return
	}

	// Buffer so a failed export still gets a JSON error response.
	var buf bytes.Buffer
	if err := h.projects.Export(ctx, projectID, format, &buf); err != nil {
		HandleError(c, err)
		return
	}

	label := project.Label
	if label == "" {
		label = project.ProjectID
	}
	filename := export.BuildFilename(label, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
