package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/config"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	storagemock "gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/storage/mock"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/tenant"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
)

const testTenantID = "tenant-ingest-1"

type leadWorkerMock struct {
	mock.Mock
}

func (m *leadWorkerMock) SubmitTask(taskData LeadTaskData) error {
	args := m.Called(taskData)
	return args.Error(0)
}

func (m *leadWorkerMock) Stop() {
	m.Called()
}

type serviceMocks struct {
	messages *storagemock.MessageRepoMock
	contacts *storagemock.ContactRepoMock
	audits   *storagemock.AuditLogRepoMock
	leads    *leadWorkerMock
}

func newTestService(t *testing.T) (*WebhookService, *serviceMocks) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	m := &serviceMocks{
		messages: new(storagemock.MessageRepoMock),
		contacts: new(storagemock.ContactRepoMock),
		audits:   new(storagemock.AuditLogRepoMock),
		leads:    new(leadWorkerMock),
	}
	svc := NewWebhookService(m.messages, m.contacts, m.audits, m.leads, &config.Config{})
	return svc, m
}

func tenantContext() context.Context {
	return tenant.WithTenantID(context.Background(), testTenantID)
}

func TestProcessInbound_Success(t *testing.T) {
	svc, m := newTestService(t)
	payload := []byte(`{
		"from": "6281234567890",
		"pushName": "Budi",
		"body": "saw your ad",
		"id": "msg-1",
		"timestamp": 1700000000,
		"utm_source": "facebook"
	}`)

	m.contacts.On("FindContactByJid", mock.Anything, "6281234567890@s.whatsapp.net").
		Return(nil, apperrors.ErrNotFound)
	m.contacts.On("SaveContact", mock.Anything, mock.MatchedBy(func(c model.Contact) bool {
		return c.TenantID == testTenantID &&
			c.Jid == "6281234567890@s.whatsapp.net" &&
			c.Origin == model.OriginMetaAds &&
			c.UtmSource == "facebook"
	})).Return(nil)
	m.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(msg model.InboundMessage) bool {
		return msg.TenantID == testTenantID && msg.MessageID == "msg-1" && msg.Body == "saw your ad"
	})).Return(nil)
	m.audits.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(log model.WebhookAuditLog) bool {
		return log.Status == model.AuditStatusOK && log.Jid == "6281234567890@s.whatsapp.net"
	})).Return(nil)
	m.leads.On("SubmitTask", mock.MatchedBy(func(task LeadTaskData) bool {
		return task.TenantID == testTenantID && task.Jid == "6281234567890@s.whatsapp.net"
	})).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", payload)
	require.NoError(t, err)
	assert.Equal(t, "6281234567890@s.whatsapp.net", result.Jid)
	assert.Equal(t, "msg-1", result.MessageID)
	assert.Equal(t, model.OriginMetaAds, result.Origin)
	assert.True(t, result.ContactSaved)

	m.contacts.AssertExpectations(t)
	m.messages.AssertExpectations(t)
	m.audits.AssertExpectations(t)
	m.leads.AssertExpectations(t)
}

func TestProcessInbound_MalformedJSON(t *testing.T) {
	svc, m := newTestService(t)

	m.audits.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(log model.WebhookAuditLog) bool {
		return log.Status == model.AuditStatusMalformed && log.TenantID == testTenantID
	})).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", []byte(`{not json`))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPayload)

	m.audits.AssertExpectations(t)
	m.contacts.AssertNotCalled(t, "SaveContact", mock.Anything, mock.Anything)
	m.messages.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	m.leads.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestProcessInbound_NoSenderStillAudited(t *testing.T) {
	svc, m := newTestService(t)

	m.audits.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(log model.WebhookAuditLog) bool {
		return log.Status == model.AuditStatusOK && log.Jid == "" && len(log.PayloadKeys) > 0
	})).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", []byte(`{"event": "status.update", "state": "sent"}`))
	require.NoError(t, err)
	assert.Empty(t, result.Jid)
	assert.False(t, result.ContactSaved)

	m.audits.AssertExpectations(t)
	m.contacts.AssertNotCalled(t, "SaveContact", mock.Anything, mock.Anything)
	m.messages.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	m.leads.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestProcessInbound_BuriedSenderViaFallbackScan(t *testing.T) {
	svc, m := newTestService(t)
	payload := []byte(`{"meta": {"delivery": {"recipient": {"msisdn": "15551234567"}}}}`)

	m.contacts.On("FindContactByJid", mock.Anything, "15551234567@s.whatsapp.net").
		Return(nil, apperrors.ErrNotFound)
	m.contacts.On("SaveContact", mock.Anything, mock.Anything).Return(nil)
	m.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(msg model.InboundMessage) bool {
		return msg.Jid == "15551234567@s.whatsapp.net" && msg.MessageID != ""
	})).Return(nil)
	m.audits.On("SaveAuditLog", mock.Anything, mock.Anything).Return(nil)
	m.leads.On("SubmitTask", mock.Anything).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", payload)
	require.NoError(t, err)
	assert.Equal(t, "15551234567@s.whatsapp.net", result.Jid)
	m.messages.AssertExpectations(t)
}

func TestProcessInbound_ContactSaveFailure(t *testing.T) {
	svc, m := newTestService(t)
	payload := []byte(`{"from": "6281234567890", "id": "msg-db-err", "body": "hi"}`)

	m.contacts.On("FindContactByJid", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound)
	m.contacts.On("SaveContact", mock.Anything, mock.Anything).
		Return(apperrors.ErrDatabase)
	m.audits.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(log model.WebhookAuditLog) bool {
		return log.Status == model.AuditStatusError && log.MessageID == "msg-db-err"
	})).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", payload)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)

	m.audits.AssertExpectations(t)
	m.messages.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	m.leads.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestProcessInbound_ExistingContactKeepsAttribution(t *testing.T) {
	svc, m := newTestService(t)
	payload := []byte(`{"from": "6281234567890", "id": "msg-2", "body": "hello again", "utm_source": "google"}`)

	existing := &model.Contact{
		ID:        "contact-1",
		TenantID:  testTenantID,
		Jid:       "6281234567890@s.whatsapp.net",
		Origin:    model.OriginMetaAds,
		UtmSource: "facebook",
	}
	require.NoError(t, existing.SetTracking(&model.TrackingData{UtmSource: "facebook"}))

	m.contacts.On("FindContactByJid", mock.Anything, "6281234567890@s.whatsapp.net").
		Return(existing, nil)
	m.contacts.On("SaveContact", mock.Anything, mock.MatchedBy(func(c model.Contact) bool {
		return c.UtmSource == "facebook" && c.Origin == model.OriginMetaAds
	})).Return(nil)
	m.messages.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)
	m.audits.On("SaveAuditLog", mock.Anything, mock.Anything).Return(nil)
	m.leads.On("SubmitTask", mock.Anything).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", payload)
	require.NoError(t, err)
	assert.Equal(t, model.OriginMetaAds, result.Origin)
	m.contacts.AssertExpectations(t)
}

func TestProcessInbound_AuditFailureDoesNotFailRequest(t *testing.T) {
	svc, m := newTestService(t)
	payload := []byte(`{"from": "6281234567890", "id": "msg-3", "body": "hi"}`)

	m.contacts.On("FindContactByJid", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound)
	m.contacts.On("SaveContact", mock.Anything, mock.Anything).Return(nil)
	m.messages.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)
	m.audits.On("SaveAuditLog", mock.Anything, mock.Anything).Return(apperrors.ErrDatabase)
	m.leads.On("SubmitTask", mock.Anything).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "wasender", payload)
	require.NoError(t, err)
	assert.True(t, result.ContactSaved)
}

func TestProcessInbound_NoTenantContext(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.ProcessInbound(context.Background(), "wasender", []byte(`{}`))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestProcessInbound_MetaCloudShape(t *testing.T) {
	svc, m := newTestService(t)
	payload := map[string]interface{}{
		"entry": []interface{}{map[string]interface{}{
			"changes": []interface{}{map[string]interface{}{
				"value": map[string]interface{}{
					"messages": []interface{}{map[string]interface{}{
						"from":      "6281234567890",
						"id":        "wamid.99",
						"timestamp": "1700000000",
						"type":      "text",
						"text":      map[string]interface{}{"body": "promo please"},
						"referral": map[string]interface{}{
							"source_type": "ad",
							"source_id":   "238500000001",
							"ctwa_clid":   "ctwa-55",
							"headline":    "Big Sale",
						},
					}},
					"contacts": []interface{}{map[string]interface{}{
						"wa_id":   "6281234567890",
						"profile": map[string]interface{}{"name": "Budi"},
					}},
				},
			}},
		}},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	m.contacts.On("FindContactByJid", mock.Anything, "6281234567890@s.whatsapp.net").
		Return(nil, apperrors.ErrNotFound)
	m.contacts.On("SaveContact", mock.Anything, mock.MatchedBy(func(c model.Contact) bool {
		return c.Origin == model.OriginMetaAds && c.PushName == "Budi"
	})).Return(nil)
	m.messages.On("SaveMessage", mock.Anything, mock.MatchedBy(func(msg model.InboundMessage) bool {
		return msg.MessageID == "wamid.99" && msg.Body == "promo please"
	})).Return(nil)
	m.audits.On("SaveAuditLog", mock.Anything, mock.Anything).Return(nil)
	m.leads.On("SubmitTask", mock.Anything).Return(nil)

	result, err := svc.ProcessInbound(tenantContext(), "meta", raw)
	require.NoError(t, err)
	assert.Equal(t, model.OriginMetaAds, result.Origin)
	m.contacts.AssertExpectations(t)
	m.messages.AssertExpectations(t)
}
