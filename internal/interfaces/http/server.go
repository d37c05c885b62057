// Package http provides the HTTP adapter for the admission workflow.
// It translates requests into application service calls and maps workflow
// errors onto status codes; no workflow rules live here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// WebhookAPIKey authenticates the public intake endpoints
	WebhookAPIKey string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	admissions *service.AdmissionService
	statistics *service.StatisticsService
	notices    port.NotificationRepository
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	admissions *service.AdmissionService,
	statistics *service.StatisticsService,
	notices port.NotificationRepository,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:     config,
		router:     gin.New(),
		admissions: admissions,
		statistics: statistics,
		notices:    notices,
		logger:     logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.admissions, s.statistics, s.notices, s.logger)
	webhook := NewWebhookHandlers(s.admissions, s.config.WebhookAPIKey, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// Staff API. The identity headers are filled by the gateway in front of
	// this service after authentication.
	api := s.router.Group("/api", staffMiddleware())
	{
		api.POST("/applications", handlers.CreateApplication)
		api.GET("/applications", handlers.ListApplications)
		api.GET("/applications/:id", handlers.GetApplication)
		api.DELETE("/applications/:id", handlers.DeleteApplication)

		api.POST("/applications/:id/start-review", handlers.StartReview)
		api.POST("/applications/:id/verify-documents", handlers.VerifyDocuments)
		api.POST("/applications/:id/request-payment", handlers.RequestPayment)
		api.POST("/applications/:id/record-payment", handlers.RecordPayment)
		api.POST("/applications/:id/approve", handlers.Approve)
		api.POST("/applications/:id/reject", handlers.Reject)
		api.POST("/applications/:id/waitlist", handlers.Waitlist)
		api.POST("/applications/:id/reopen", handlers.Reopen)

		api.GET("/applications/:id/workflow-logs", handlers.WorkflowLogs)
		api.GET("/applications/:id/payments", handlers.Payments)

		api.GET("/statistics", handlers.Statistics)
		api.GET("/notifications", handlers.ListNotifications)
		api.POST("/notifications/:id/read", handlers.MarkNotificationRead)
	}

	// Public intake, authenticated by a static API key
	public := s.router.Group("/webhook", webhook.authMiddleware())
	{
		public.POST("/admission", webhook.SubmitApplication)
		public.GET("/admission/status/:reference", webhook.ApplicationStatus)
		public.GET("/programs", webhook.ListPrograms)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
