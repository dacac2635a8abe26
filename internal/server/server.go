package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/auth"
	"projecthub/internal/models"
	"projecthub/internal/storage"
)

// Options holds the optional HTTP settings.
type Options struct {
	StaticDir  string
	CORSOrigin string
}

// Server provides HTTP handlers for the project management backend.
type Server struct {
	engine    *gin.Engine
	store     *storage.Store
	tokens    *auth.Tokens
	logger    *zap.Logger
	staticDir string
	origin    string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *storage.Store, tokens *auth.Tokens, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	srv := &Server{
		engine:    router,
		store:     store,
		tokens:    tokens,
		logger:    logger,
		staticDir: opts.StaticDir,
		origin:    opts.CORSOrigin,
	}

	router.Use(srv.requestLogger(), gin.Recovery(), srv.cors())
	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.authenticate())
	authed.GET("/auth/me", s.handleMe)

	users := authed.Group("/users")
	{
		users.GET("", require(models.PermListUsers), s.handleListUsers)
		users.POST("", require(models.PermManageUsers), s.handleCreateUser)
		users.GET("/role/:role", s.handleListUsersByRole)
		users.GET("/project/:id/developers", s.handleProjectDevelopers)
		users.GET("/project/:id/available-developers", require(models.PermListUsers), s.handleAvailableDevelopers)
		users.GET("/:id", s.handleGetUser)
		users.PUT("/:id", s.handleUpdateUser)
	}

	projects := authed.Group("/projects")
	{
		projects.GET("", require(models.PermListProjects), s.handleListProjects)
		projects.POST("", require(models.PermCreateProject), s.handleCreateProject)
		projects.GET("/statuses", s.handleListProjectStatuses)
		projects.GET("/manager/:managerId", s.handleListProjectsByManager)
		projects.GET("/developer/:developerId", s.handleListProjectsByDeveloper)
		projects.GET("/:id", s.handleGetProject)
		projects.PUT("/:id", require(models.PermUpdateProject), s.handleUpdateProject)
		projects.DELETE("/:id", require(models.PermDeleteProject), s.handleDeleteProject)
		projects.PUT("/:id/manager", require(models.PermAssignManager), s.handleAssignManager)
		projects.POST("/:id/technologies", require(models.PermManageTechnologies), s.handleAssignTechnologies)
		projects.POST("/:id/team", require(models.PermManageTeam), s.handleAssignTeam)
		projects.POST("/:id/meeting", require(models.PermManageTeam), s.handleScheduleMeeting)
	}

	tasks := authed.Group("/tasks")
	{
		tasks.GET("", require(models.PermListTasks), s.handleListTasks)
		tasks.POST("", require(models.PermManageTasks), s.handleCreateTask)
		tasks.GET("/statuses", s.handleListTaskStatuses)
		tasks.GET("/priorities", s.handleListTaskPriorities)
		tasks.GET("/project/:projectId", s.handleListProjectTasks)
		tasks.GET("/developer/:developerId", s.handleListDeveloperTasks)
		tasks.GET("/:id", s.handleGetTask)
		tasks.PUT("/:id", require(models.PermManageTasks), s.handleUpdateTask)
		tasks.DELETE("/:id", require(models.PermManageTasks), s.handleDeleteTask)
		tasks.PUT("/:id/status", require(models.PermUpdateTaskStatus), s.handleUpdateTaskStatus)
		tasks.PUT("/:id/assignee", require(models.PermManageTasks), s.handleAssignTask)
		tasks.GET("/:id/progress", s.handleListProgress)
		tasks.POST("/:id/progress", require(models.PermReportProgress), s.handleAddProgress)
		tasks.GET("/:id/comments", s.handleListComments)
		tasks.POST("/:id/comments", s.handleAddComment)
	}

	technologies := authed.Group("/technologies")
	{
		technologies.GET("", s.handleListTechnologies)
		technologies.GET("/:id", s.handleGetTechnology)
		technologies.POST("", require(models.PermManageTechnologies), s.handleCreateTechnology)
		technologies.PUT("/:id", require(models.PermManageTechnologies), s.handleUpdateTechnology)
		technologies.DELETE("/:id", require(models.PermManageTechnologies), s.handleDeleteTechnology)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("/user/:userId", s.handleListNotifications)
		notifications.GET("/user/:userId/unread-count", s.handleUnreadCount)
		notifications.PUT("/user/:userId/read-all", s.handleMarkAllRead)
		notifications.PUT("/:id/read", s.handleMarkRead)
	}

	s.mountStatic()
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body and answers 400 when it is malformed.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// respondError maps domain errors to a status code and a JSON payload.
// Anything unexpected is logged and hidden behind a generic 500.
func (s *Server) respondError(c *gin.Context, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		s.logger.Error("request failed",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondSuccess writes payload, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
