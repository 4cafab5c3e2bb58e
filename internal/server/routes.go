package server

import (
	"net/http"
	"time"

	"github.com/danmuck/labctl/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Login    string `json:"login" form:"login" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": "labctl",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		s.mu.RLock()
		users := len(s.data.Users)
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{
			"ready": true,
			"users": users,
		})
	})

	s.router.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": s.Users()})
	})

	s.router.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "login and password required"})
			return
		}
		c.Set(observability.LoginKey, req.Login)
		if err := s.Authenticate(req.Login, req.Password); err != nil {
			observability.RecordLogin(false)
			log.Warn().Str("login", req.Login).Err(err).Msg("login rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login or password"})
			return
		}
		observability.RecordLogin(true)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "login": req.Login})
	})

	// Reload rereads the user store so a running server sees users imported
	// after it started. Admin credentials only.
	s.router.POST("/reload", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "login and password required"})
			return
		}
		c.Set(observability.LoginKey, req.Login)
		if req.Login != s.cfg.AdminLogin || s.Authenticate(req.Login, req.Password) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin credentials required"})
			return
		}
		if err := s.Reload(); err != nil {
			log.Error().Err(err).Msg("reload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed"})
			return
		}
		s.mu.RLock()
		users := len(s.data.Users)
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{"status": "reloaded", "users": users})
	})
}
