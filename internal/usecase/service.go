package usecase

import (
	"context"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/config"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/leadgen"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/storage"
)

// LeadCreator is the narrow contract to the external lead-creation service.
type LeadCreator interface {
	CreateLead(ctx context.Context, payload *leadgen.CreateLeadRequest) (*leadgen.CreateLeadResponse, error)
}

// WebhookService runs the ingestion pipeline for one inbound webhook call:
// normalize, attribute, merge contact, store message, audit, trigger lead.
type WebhookService struct {
	messageRepo storage.MessageRepo
	contactRepo storage.ContactRepo
	auditRepo   storage.AuditLogRepo
	leadWorker  ILeadWorker
	cfg         *config.Config
}

// NewWebhookService creates the webhook processing service.
func NewWebhookService(
	messageRepo storage.MessageRepo,
	contactRepo storage.ContactRepo,
	auditRepo storage.AuditLogRepo,
	leadWorker ILeadWorker,
	cfg *config.Config,
) *WebhookService {
	return &WebhookService{
		messageRepo: messageRepo,
		contactRepo: contactRepo,
		auditRepo:   auditRepo,
		leadWorker:  leadWorker,
		cfg:         cfg,
	}
}

func (s *WebhookService) historyLimit() int {
	if s.cfg != nil && s.cfg.Webhook.HistoryLimit > 0 {
		return s.cfg.Webhook.HistoryLimit
	}
	return 30
}

func (s *WebhookService) scanMaxDepth() int {
	if s.cfg != nil && s.cfg.Webhook.ScanMaxDepth > 0 {
		return s.cfg.Webhook.ScanMaxDepth
	}
	return 10
}

func (s *WebhookService) bodyPreviewChars() int {
	if s.cfg != nil && s.cfg.Webhook.BodyPreviewChars > 0 {
		return s.cfg.Webhook.BodyPreviewChars
	}
	return 160
}
