// Package http exposes the daemon's observation surface: liveness,
// Prometheus metrics and the latest pass summary.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appsync "targetsync/internal/application/sync"
	"targetsync/internal/shared/biztime"
	"targetsync/internal/shared/config"
	"targetsync/internal/shared/logger"
)

// StatusServer serves the read-only operational endpoints. It never
// mutates sync state.
type StatusServer struct {
	server *http.Server
	logger logger.Interface

	mu      sync.RWMutex
	summary *appsync.PassSummary
}

func NewStatusServer(cfg *config.ServerConfig, log logger.Interface) *StatusServer {
	if cfg.Mode != "" {
		gin.SetMode(mapMode(cfg.Mode))
	}

	s := &StatusServer{logger: log.Named("http")}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:              cfg.GetAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// RecordSummary publishes the outcome of the latest pass.
func (s *StatusServer) RecordSummary(summary *appsync.PassSummary) {
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
}

// Start serves until the listener fails or Shutdown is called.
func (s *StatusServer) Start() error {
	s.logger.Infow("status server listening", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *StatusServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *StatusServer) handleStatus(c *gin.Context) {
	s.mu.RLock()
	summary := s.summary
	s.mu.RUnlock()

	if summary == nil {
		c.JSON(http.StatusOK, gin.H{"status": "no pass completed yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"last_pass_started": biztime.FormatInBizTimezone(summary.StartedAt, time.RFC3339),
		"last_pass":         summary,
	})
}

func mapMode(mode string) string {
	switch mode {
	case "development", "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
