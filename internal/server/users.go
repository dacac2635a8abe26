package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/models"
	"projecthub/internal/storage"
)

type createUserRequest struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Role       string   `json:"role"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Bio        string   `json:"bio"`
	PictureURL string   `json:"pictureUrl"`
	Skills     []string `json:"skills"`
}

type updateUserRequest struct {
	Email      *string   `json:"email"`
	FirstName  *string   `json:"firstName"`
	LastName   *string   `json:"lastName"`
	Bio        *string   `json:"bio"`
	PictureURL *string   `json:"pictureUrl"`
	Skills     *[]string `json:"skills"`
	Role       *string   `json:"role"`
	Password   *string   `json:"password"`
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleListUsersByRole(c *gin.Context) {
	role, err := models.ParseRole(c.Param("role"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	users, err := s.store.ListUsersByRole(c.Request.Context(), role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

// handleCreateUser registers a new account. Directors only.
func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), models.User{
		Username:   req.Username,
		Email:      req.Email,
		Role:       models.Role(req.Role),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Bio:        req.Bio,
		PictureURL: req.PictureURL,
		Skills:     req.Skills,
	}, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user})
}

// handleUpdateUser edits a profile. Users may edit themselves; Directors may
// edit anyone and are the only ones allowed to change a role.
func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	director := callerRole(c) == models.RoleDirector
	if id != callerID(c) && !director {
		s.respondError(c, models.ErrForbidden)
		return
	}

	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	upd := storage.UserUpdate{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Bio:        req.Bio,
		PictureURL: req.PictureURL,
		Skills:     req.Skills,
		Password:   req.Password,
	}
	if req.Role != nil {
		if !director {
			s.respondError(c, models.ErrForbidden)
			return
		}
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			s.respondError(c, err)
			return
		}
		upd.Role = &role
	}

	user, err := s.store.UpdateUser(c.Request.Context(), id, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleProjectDevelopers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	users, err := s.store.ProjectDevelopers(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleAvailableDevelopers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	users, err := s.store.AvailableDevelopers(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}
