package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/models"
)

type technologyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (r technologyRequest) model() models.Technology {
	return models.Technology{Name: r.Name, Description: r.Description, Category: r.Category}
}

func (s *Server) handleListTechnologies(c *gin.Context) {
	techs, err := s.store.ListTechnologies(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"technologies": techs})
}

func (s *Server) handleGetTechnology(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tech, err := s.store.GetTechnology(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"technology": tech})
}

func (s *Server) handleCreateTechnology(c *gin.Context) {
	var req technologyRequest
	if !bindJSON(c, &req) {
		return
	}
	tech, err := s.store.CreateTechnology(c.Request.Context(), req.model())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"technology": tech})
}

func (s *Server) handleUpdateTechnology(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req technologyRequest
	if !bindJSON(c, &req) {
		return
	}
	tech, err := s.store.UpdateTechnology(c.Request.Context(), id, req.model())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"technology": tech})
}

// handleDeleteTechnology removes a catalog entry and unlinks it from projects.
func (s *Server) handleDeleteTechnology(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTechnology(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
