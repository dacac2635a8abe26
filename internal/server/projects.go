package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/models"
)

type projectRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   jsonTime  `json:"startDate"`
	Deadline    jsonTime  `json:"deadline"`
	EndDate     *jsonTime `json:"endDate"`
	StatusID    int64     `json:"statusId"`
	Status      string    `json:"status"`
	ManagerID   *int64    `json:"managerId"`
	DirectorID  int64     `json:"directorId"`
	ClientName  string    `json:"clientName"`
}

type teamRequest struct {
	DeveloperIDs []int64  `json:"developerIds"`
	MeetingDate  jsonTime `json:"meetingDate"`
}

type meetingRequest struct {
	Date jsonTime `json:"date"`
}

type managerRequest struct {
	ManagerID int64 `json:"managerId" binding:"required"`
}

type technologiesRequest struct {
	TechnologyIDs []int64 `json:"technologyIds"`
}

// project converts the request into a model, resolving a status given by name.
func (s *Server) project(c *gin.Context, req projectRequest) (models.Project, error) {
	p := models.Project{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate.Time,
		Deadline:    req.Deadline.Time,
		EndDate:     req.EndDate.ptr(),
		StatusID:    req.StatusID,
		ManagerID:   req.ManagerID,
		DirectorID:  req.DirectorID,
		ClientName:  req.ClientName,
	}
	if p.StatusID == 0 && req.Status != "" {
		id, err := s.store.ProjectStatusID(c.Request.Context(), req.Status)
		if err != nil {
			return models.Project{}, err
		}
		p.StatusID = id
	}
	return p, nil
}

// handleListProjects returns all projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleListProjectStatuses returns the statuses a project can be put in.
func (s *Server) handleListProjectStatuses(c *gin.Context) {
	statuses, err := s.store.ListProjectStatuses(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"statuses": statuses})
}

func (s *Server) handleListProjectsByManager(c *gin.Context) {
	id, ok := parseID(c, "managerId")
	if !ok {
		return
	}
	projects, err := s.store.ListProjectsByManager(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) handleListProjectsByDeveloper(c *gin.Context) {
	id, ok := parseID(c, "developerId")
	if !ok {
		return
	}
	projects, err := s.store.ListProjectsByDeveloper(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleCreateProject creates a new project. The caller becomes its director
// unless the request names one.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.project(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if p.DirectorID == 0 {
		p.DirectorID = callerID(c)
	}

	project, err := s.store.CreateProject(c.Request.Context(), p, callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleUpdateProject replaces the editable fields of an existing project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.project(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	// The manager changes only through PUT /projects/:id/manager.
	p.ManagerID, p.DirectorID = nil, 0

	project, err := s.store.UpdateProject(c.Request.Context(), id, p)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and all related tasks.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleAssignManager(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req managerRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := s.store.AssignManager(c.Request.Context(), id, req.ManagerID, callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

func (s *Server) handleAssignTechnologies(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req technologiesRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := s.store.AssignTechnologies(c.Request.Context(), id, req.TechnologyIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleAssignTeam replaces the project team and optionally schedules the
// kickoff meeting.
func (s *Server) handleAssignTeam(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req teamRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := s.store.AssignTeam(c.Request.Context(), id, req.DeveloperIDs, req.MeetingDate.ptr(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

func (s *Server) handleScheduleMeeting(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req meetingRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := s.store.ScheduleMeeting(c.Request.Context(), id, req.Date.Time, callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}
