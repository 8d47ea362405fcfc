package storage

import (
	"context"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
)

// MessageRepo defines message storage operations
type MessageRepo interface {
	SaveMessage(ctx context.Context, message model.InboundMessage) error
	Close(ctx context.Context) error
}

// ContactRepo defines contact storage operations
type ContactRepo interface {
	SaveContact(ctx context.Context, contact model.Contact) error
	FindContactByJid(ctx context.Context, jid string) (*model.Contact, error)
	Close(ctx context.Context) error
}

// AuditLogRepo defines audit log storage operations
type AuditLogRepo interface {
	SaveAuditLog(ctx context.Context, log model.WebhookAuditLog) error
	Close(ctx context.Context) error
}

// WebhookConfigRepo defines webhook config and profile lookup operations,
// used during tenant resolution before a tenant context exists.
type WebhookConfigRepo interface {
	FindWebhookConfigByTenantID(ctx context.Context, tenantID string) (*model.WebhookConfig, error)
	FindWebhookConfigsBySecret(ctx context.Context, secret string) ([]model.WebhookConfig, error)
	FindProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Close(ctx context.Context) error
}
