package ingestion

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/tenant"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/usecase"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
)

// Providers accepted on the webhook path. Both run the same pipeline; the
// label only feeds the audit trail and metrics.
var supportedProviders = map[string]bool{
	"wasender": true,
	"meta":     true,
}

// WebhookHandler terminates the inbound webhook HTTP surface: auth, body
// capture, pipeline dispatch and status mapping.
type WebhookHandler struct {
	resolver *usecase.TenantResolver
	service  *usecase.WebhookService
}

func NewWebhookHandler(resolver *usecase.TenantResolver, service *usecase.WebhookService) *WebhookHandler {
	return &WebhookHandler{resolver: resolver, service: service}
}

// HandleOptions answers CORS preflight. Provider webhooks are
// server-to-server, but some senders probe with OPTIONS first.
func (h *WebhookHandler) HandleOptions(c *gin.Context) {
	writeCORSHeaders(c)
	c.Status(http.StatusOK)
}

// HandleGet is a liveness probe for provider dashboards that ping the
// webhook URL with GET before enabling delivery.
func (h *WebhookHandler) HandleGet(c *gin.Context) {
	if !supportedProviders[c.Param("provider")] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandlePost runs one webhook delivery through auth and the ingestion
// pipeline.
func (h *WebhookHandler) HandlePost(c *gin.Context) {
	provider := c.Param("provider")
	ctx := c.Request.Context()
	log := logger.FromContext(ctx).With(zap.String("provider", provider))

	if !supportedProviders[provider] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		h.service.AuditInternalFailure(ctx, "", provider, nil, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	hint := extractAuthHint(c)
	tenantID, err := h.resolver.Resolve(ctx, hint)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMissingCredentials):
			log.Warn("Webhook call without credentials")
			h.service.AuditAuthFailure(ctx, hint.TenantID, provider, rawBody, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing credentials"})
		case errors.Is(err, apperrors.ErrInvalidSecret):
			log.Warn("Webhook auth rejected", zap.Error(err))
			h.service.AuditAuthFailure(ctx, hint.TenantID, provider, rawBody, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		default:
			log.Error("Tenant resolution failed", zap.Error(err))
			h.service.AuditInternalFailure(ctx, hint.TenantID, provider, rawBody, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	ctx = tenant.WithTenantID(ctx, tenantID)
	if _, err := h.service.ProcessInbound(ctx, provider, rawBody); err != nil {
		if errors.Is(err, apperrors.ErrMalformedPayload) || apperrors.IsBadRequestError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
			return
		}
		log.Error("Webhook pipeline failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// extractAuthHint pulls credentials from query parameters and the bearer
// header. The query secret wins when both are present.
func extractAuthHint(c *gin.Context) usecase.AuthHint {
	hint := usecase.AuthHint{
		TenantID: c.Query("tenant_id"),
		UserID:   c.Query("user_id"),
		Secret:   c.Query("secret"),
	}
	if hint.Secret == "" {
		auth := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			hint.Secret = strings.TrimSpace(token)
		}
	}
	return hint
}

func writeCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
}
