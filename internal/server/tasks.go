package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/models"
)

type taskRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ProjectID      int64    `json:"projectId"`
	StatusID       int64    `json:"statusId"`
	Status         string   `json:"status"`
	PriorityID     int64    `json:"priorityId"`
	Priority       string   `json:"priority"`
	DueDate        jsonTime `json:"dueDate"`
	AssigneeID     *int64   `json:"assigneeId"`
	EstimatedHours *float64 `json:"estimatedHours"`
	ActualHours    *float64 `json:"actualHours"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type assigneeRequest struct {
	AssigneeID *int64 `json:"assigneeId"`
}

type progressRequest struct {
	Percentage  int    `json:"percentageComplete"`
	Description string `json:"description"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// task converts the request into a model, resolving status and priority
// names when no id is given.
func (s *Server) task(c *gin.Context, req taskRequest) (models.Task, error) {
	ctx := c.Request.Context()
	t := models.Task{
		Title:          req.Title,
		Description:    req.Description,
		ProjectID:      req.ProjectID,
		StatusID:       req.StatusID,
		PriorityID:     req.PriorityID,
		DueDate:        req.DueDate.Time,
		AssigneeID:     req.AssigneeID,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}
	if t.StatusID == 0 && req.Status != "" {
		id, err := s.store.TaskStatusID(ctx, req.Status)
		if err != nil {
			return models.Task{}, err
		}
		t.StatusID = id
	}
	if t.PriorityID == 0 && req.Priority != "" {
		id, err := s.store.TaskPriorityID(ctx, req.Priority)
		if err != nil {
			return models.Task{}, err
		}
		t.PriorityID = id
	}
	return t, nil
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleListProjectTasks fetches tasks for a project.
func (s *Server) handleListProjectTasks(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	tasks, err := s.store.ListTasksByProject(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleListDeveloperTasks(c *gin.Context) {
	developerID, ok := parseID(c, "developerId")
	if !ok {
		return
	}
	tasks, err := s.store.ListTasksByDeveloper(c.Request.Context(), developerID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleListTaskStatuses(c *gin.Context) {
	statuses, err := s.store.ListTaskStatuses(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"statuses": statuses})
}

func (s *Server) handleListTaskPriorities(c *gin.Context) {
	priorities, err := s.store.ListTaskPriorities(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"priorities": priorities})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleCreateTask inserts a new task into a project.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := s.task(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.store.CreateTask(c.Request.Context(), t, callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask replaces the editable fields of a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := s.task(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.store.UpdateTask(c.Request.Context(), id, t)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTaskStatus moves a task to another column. Developers may only
// move the tasks assigned to them.
func (s *Server) handleUpdateTaskStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	if callerRole(c) == models.RoleDeveloper {
		current, err := s.store.GetTask(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if current.AssigneeID == nil || *current.AssigneeID != callerID(c) {
			s.respondError(c, models.ErrForbidden)
			return
		}
	}
	task, err := s.store.UpdateTaskStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleAssignTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req assigneeRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.store.AssignTask(c.Request.Context(), id, req.AssigneeID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task with its progress log and comments.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleListProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entries, err := s.store.ListProgress(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"progress": entries})
}

// handleAddProgress appends a progress report from the caller.
func (s *Server) handleAddProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req progressRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.store.AddProgress(c.Request.Context(), id, models.TaskProgress{
		UserID:      callerID(c),
		Percentage:  req.Percentage,
		Description: req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"progress": entry})
}

func (s *Server) handleListComments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := s.store.ListComments(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comments": comments})
}

func (s *Server) handleAddComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := s.store.AddComment(c.Request.Context(), id, models.TaskComment{
		AuthorID: callerID(c),
		Content:  req.Content,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}
