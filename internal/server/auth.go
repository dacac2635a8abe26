package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// handleLogin exchanges an email (or username) and password for a bearer token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}

	user, err := s.store.Authenticate(c.Request.Context(), identifier, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	token, expires, err := s.tokens.Issue(&user)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info("user signed in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	respondSuccess(c, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: user})
}

// handleMe returns the profile of the caller.
func (s *Server) handleMe(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}
