package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wellness-bot/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Server keep-alive and health endpoint for the hosting platform
type Server struct {
	db      *gorm.DB
	started time.Time
	srv     *http.Server
}

// NewServer builds the router; addr like ":3000"
func NewServer(addr string, db *gorm.DB) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{db: db, started: time.Now()}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", s.root)
	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background
func (s *Server) Start() {
	go func() {
		logrus.WithField("addr", s.srv.Addr).Info("🌐 health server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("error", err.Error()).Error("❌ health server stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) root(c *gin.Context) {
	c.String(http.StatusOK, "Bot is running")
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	uptime := time.Since(s.started).Round(time.Second).String()
	if err := database.Ping(ctx, s.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": err.Error(),
			"uptime":   uptime,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
		"uptime":   uptime,
	})
}
