package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Test data factories. Each New* returns an instance populated with fake but
// structurally valid data; pass an override to pin specific fields.

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// RandomJSONB generates a small random JSON object for payload columns.
func RandomJSONB() datatypes.JSON {
	jsonData := map[string]interface{}{
		"from": gofakeit.Phone(),
		"body": gofakeit.Sentence(4),
	}
	bytes, _ := json.Marshal(jsonData)
	return datatypes.JSON(bytes)
}

// fakeMsisdn returns a plausible international phone number without formatting.
func fakeMsisdn() string {
	return "62" + strconv.Itoa(gofakeit.Number(800000000, 899999999)) + strconv.Itoa(gofakeit.Number(10, 99))
}

// NewContact creates a Contact with default fake data.
func NewContact(overrideDefaults ...*Contact) *Contact {
	phone := fakeMsisdn()
	base := &Contact{
		ID:          uuid.New().String(),
		TenantID:    "tenant_" + gofakeit.LetterN(10),
		Jid:         phone + "@s.whatsapp.net",
		Phone:       phone,
		PushName:    gofakeit.Name(),
		Origin:      OriginUnidentified,
		FirstSeenAt: time.Now().UTC().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		LastSeenAt:  time.Now().UTC(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.Jid != "" {
			base.Jid = ovr.Jid
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.PushName != "" {
			base.PushName = ovr.PushName
		}
		if ovr.Origin != "" {
			base.Origin = ovr.Origin
		}
		if ovr.UtmSource != "" {
			base.UtmSource = ovr.UtmSource
		}
		if len(ovr.TrackingData) > 0 {
			base.TrackingData = ovr.TrackingData
		}
	}
	return base
}

// NewInboundMessage creates an InboundMessage with default fake data.
func NewInboundMessage(overrideDefaults ...*InboundMessage) *InboundMessage {
	phone := fakeMsisdn()
	base := &InboundMessage{
		TenantID:         "tenant_" + gofakeit.LetterN(10),
		MessageID:        gofakeit.UUID(),
		Jid:              phone + "@s.whatsapp.net",
		Phone:            phone,
		PushName:         gofakeit.Name(),
		MessageType:      MessageTypeText,
		Body:             gofakeit.Sentence(6),
		MessageTimestamp: time.Now().UTC().Unix(),
		RawPayload:       RandomJSONB(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.MessageID != "" {
			base.MessageID = ovr.MessageID
		}
		if ovr.Jid != "" {
			base.Jid = ovr.Jid
		}
		if ovr.MessageType != "" {
			base.MessageType = ovr.MessageType
		}
		if ovr.Body != "" {
			base.Body = ovr.Body
		}
		if ovr.MessageTimestamp != 0 {
			base.MessageTimestamp = ovr.MessageTimestamp
		}
	}
	return base
}

// NewWebhookConfig creates a WebhookConfig with default fake data.
func NewWebhookConfig(overrideDefaults ...*WebhookConfig) *WebhookConfig {
	base := &WebhookConfig{
		TenantID: "tenant_" + gofakeit.LetterN(10),
		Secret:   gofakeit.LetterN(32),
		Enabled:  true,
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.Secret != "" {
			base.Secret = ovr.Secret
		}
		base.Enabled = ovr.Enabled
	}
	return base
}

// NewWebhookAuditLog creates a WebhookAuditLog with default fake data.
func NewWebhookAuditLog(overrideDefaults ...*WebhookAuditLog) *WebhookAuditLog {
	phone := fakeMsisdn()
	base := &WebhookAuditLog{
		TenantID:    "tenant_" + gofakeit.LetterN(10),
		Provider:    gofakeit.RandomString([]string{"wasender", "meta"}),
		Jid:         phone + "@s.whatsapp.net",
		MessageID:   gofakeit.UUID(),
		Status:      AuditStatusOK,
		MessageType: MessageTypeText,
		BodyPreview: gofakeit.Sentence(4),
		RawPayload:  RandomJSONB(),
		ReceivedAt:  time.Now().UTC(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.Provider != "" {
			base.Provider = ovr.Provider
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.Detail != "" {
			base.Detail = ovr.Detail
		}
	}
	return base
}
