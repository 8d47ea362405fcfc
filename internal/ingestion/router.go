package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/tenant"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
)

// NewRouter builds the webhook gin engine with all routes registered.
func NewRouter(handler *WebhookHandler, environment string) *gin.Engine {
	if environment == "production" || environment == "live" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(RequestID())

	v1 := router.Group("/v1")
	{
		v1.OPTIONS("/webhooks/:provider", handler.HandleOptions)
		v1.GET("/webhooks/:provider", handler.HandleGet)
		v1.POST("/webhooks/:provider", handler.HandlePost)
	}

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	return router
}

// RequestID tags every request with an id, propagated through the request
// context so downstream log lines carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(tenant.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Server wraps the webhook HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates the webhook server on the given port.
func NewServer(port int, router *gin.Engine) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Log.Named("webhook_server"),
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting webhook server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Webhook server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping webhook server")
	return s.httpServer.Shutdown(ctx)
}
