package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
)

// MessageRepoMock is a mock implementation of storage.MessageRepo
type MessageRepoMock struct {
	mock.Mock
}

func (m *MessageRepoMock) SaveMessage(ctx context.Context, message model.InboundMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ContactRepoMock is a mock implementation of storage.ContactRepo
type ContactRepoMock struct {
	mock.Mock
}

func (m *ContactRepoMock) SaveContact(ctx context.Context, contact model.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *ContactRepoMock) FindContactByJid(ctx context.Context, jid string) (*model.Contact, error) {
	args := m.Called(ctx, jid)
	var contact *model.Contact
	if args.Get(0) != nil {
		contact = args.Get(0).(*model.Contact)
	}
	return contact, args.Error(1)
}

func (m *ContactRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// AuditLogRepoMock is a mock implementation of storage.AuditLogRepo
type AuditLogRepoMock struct {
	mock.Mock
}

func (m *AuditLogRepoMock) SaveAuditLog(ctx context.Context, log model.WebhookAuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditLogRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// WebhookConfigRepoMock is a mock implementation of storage.WebhookConfigRepo
type WebhookConfigRepoMock struct {
	mock.Mock
}

func (m *WebhookConfigRepoMock) FindWebhookConfigByTenantID(ctx context.Context, tenantID string) (*model.WebhookConfig, error) {
	args := m.Called(ctx, tenantID)
	var cfg *model.WebhookConfig
	if args.Get(0) != nil {
		cfg = args.Get(0).(*model.WebhookConfig)
	}
	return cfg, args.Error(1)
}

func (m *WebhookConfigRepoMock) FindWebhookConfigsBySecret(ctx context.Context, secret string) ([]model.WebhookConfig, error) {
	args := m.Called(ctx, secret)
	var configs []model.WebhookConfig
	if args.Get(0) != nil {
		configs = args.Get(0).([]model.WebhookConfig)
	}
	return configs, args.Error(1)
}

func (m *WebhookConfigRepoMock) FindProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	var profile *model.Profile
	if args.Get(0) != nil {
		profile = args.Get(0).(*model.Profile)
	}
	return profile, args.Error(1)
}

func (m *WebhookConfigRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
