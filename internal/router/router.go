package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"lekha/internal/handler"
	"lekha/internal/middleware"
)

// Handlers groups the handlers mounted by Setup.
type Handlers struct {
	Session *handler.SessionHandler
	Segment *handler.SegmentHandler
	Project *handler.ProjectHandler
	Health  *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, allowedOrigins []string, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	// Review session
	v1.GET("/state", h.Session.State)
	v1.POST("/project", h.Session.SwitchProject)
	v1.POST("/view", h.Session.SwitchView)
	v1.POST("/save", h.Session.Save)

	// Segments of the active project
	segments := v1.Group("/segments")
	segments.GET("/:id", h.Segment.Get)
	segments.GET("/:id/image", h.Segment.Image)

	// Projects
	v1.GET("/projects", h.Project.List)
	v1.GET("/export", h.Project.Export)

	return r
}
