// Package server is the thin HTTP front of a lab installation: health and
// metrics endpoints plus a login check against the user store.
package server

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/danmuck/labctl/internal/auth"
	"github.com/danmuck/labctl/internal/config"
	"github.com/danmuck/labctl/internal/data"
	"github.com/danmuck/labctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var ErrUnknownUser = errors.New("unknown user")

type Server struct {
	cfg      config.Lab
	store    data.Store
	router   *gin.Engine
	appeared time.Time

	mu   sync.RWMutex
	data *data.Data
}

// New builds a server over cfg's installation. The store is loaded once.
func New(cfg config.Lab, store data.Store) (*Server, error) {
	d, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	if !cfg.DebugServer {
		gin.SetMode(gin.ReleaseMode)
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:      cfg,
		store:    store,
		router:   r,
		appeared: time.Now(),
		data:     d,
	}
	s.RegisterRoutes()
	return s, nil
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Reload rereads the store, picking up users imported since start.
func (s *Server) Reload() error {
	d, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
	return nil
}

// Authenticate checks login/password against the stored passhash.
func (s *Server) Authenticate(login, password string) error {
	s.mu.RLock()
	u, ok := s.data.User(login)
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, login)
	}
	return auth.Verify(u.Passhash, password, s.cfg.SecretKey)
}

// Users lists the public fields of every user, admin included.
func (s *Server) Users() []UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserInfo, 0, len(s.data.Users))
	for _, id := range s.data.IDs() {
		u := s.data.Users[id]
		out = append(out, UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, Admin: id == s.data.AdminID})
	}
	return out
}

// Serve listens on the configured address. SIGHUP reloads the user store.
func (s *Server) Serve() error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()
	go s.reloadOn(sigs)

	log.Info().Str("addr", s.cfg.ListenAddr).Msg("serving lab")
	return s.router.Run(s.cfg.ListenAddr)
}

// reloadOn calls Reload once per value received, until sigs is closed.
func (s *Server) reloadOn(sigs <-chan os.Signal) {
	for sig := range sigs {
		if err := s.Reload(); err != nil {
			log.Error().Err(err).Str("signal", sig.String()).Msg("reload failed")
			continue
		}
		s.mu.RLock()
		users := len(s.data.Users)
		s.mu.RUnlock()
		log.Info().Str("signal", sig.String()).Int("users", users).Msg("reloaded user store")
	}
}

type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
}
