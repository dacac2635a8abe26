package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// mountStatic serves the compiled frontend from the configured directory.
// Unknown /api paths always get a JSON 404.
func (s *Server) mountStatic() {
	indexPath := s.staticIndex()
	s.engine.NoRoute(func(c *gin.Context) {
		if indexPath == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.File(indexPath)
	})
	if indexPath == "" {
		return
	}
	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, true))
	}

	favicon := filepath.Join(s.staticDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

// staticIndex returns the path of index.html, or "" when there is no usable
// frontend build.
func (s *Server) staticIndex() string {
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return ""
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", zap.String("path", s.staticDir), zap.Error(err))
		return ""
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", zap.String("path", indexPath), zap.Error(err))
		return ""
	}
	return indexPath
}
