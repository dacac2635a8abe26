package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/models"
)

// recipient parses the :userId parameter and checks it is the caller.
func (s *Server) recipient(c *gin.Context) (int64, bool) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return 0, false
	}
	if userID != callerID(c) {
		s.respondError(c, models.ErrForbidden)
		return 0, false
	}
	return userID, true
}

// handleListNotifications returns the caller's notifications, newest first.
func (s *Server) handleListNotifications(c *gin.Context) {
	userID, ok := s.recipient(c)
	if !ok {
		return
	}
	list, err := s.store.ListNotifications(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notifications": list})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	userID, ok := s.recipient(c)
	if !ok {
		return
	}
	count, err := s.store.UnreadNotifications(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"count": count})
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	userID, ok := s.recipient(c)
	if !ok {
		return
	}
	changed, err := s.store.MarkAllNotificationsRead(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"updated": changed})
}

// handleMarkRead flags one notification as read. Repeating it is harmless.
func (s *Server) handleMarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.MarkNotificationRead(c.Request.Context(), id, callerID(c)); err != nil {
		s.respondError(c, err)
		return
	}
	n, err := s.store.GetNotification(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notification": n})
}
