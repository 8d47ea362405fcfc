package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditStatusOK           = "ok"
	AuditStatusUnauthorized = "unauthorized"
	AuditStatusMalformed    = "malformed"
	AuditStatusError        = "error"
)

// WebhookAuditLog is an append-only record of every webhook delivery attempt,
// written regardless of whether the payload produced a message or contact.
type WebhookAuditLog struct {
	ID          int64          `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	TenantID    string         `json:"tenant_id,omitempty" gorm:"column:tenant_id;index;type:text"` // Empty when auth never resolved a tenant
	Provider    string         `json:"provider" gorm:"column:provider;type:text"`
	Jid         string         `json:"jid,omitempty" gorm:"column:jid;type:text"`
	MessageID   string         `json:"message_id,omitempty" gorm:"column:message_id;type:text"`
	Status      string         `json:"status" gorm:"column:status;index;type:text"`
	Detail      string         `json:"detail,omitempty" gorm:"column:detail;type:text"`
	BodyPreview string         `json:"body_preview,omitempty" gorm:"column:body_preview;type:text"`
	PayloadKeys datatypes.JSON `json:"payload_keys,omitempty" gorm:"type:jsonb;column:payload_keys"` // Top-level keys, for diagnosing unrecognized shapes
	MessageType string         `json:"message_type,omitempty" gorm:"column:message_type;type:text"`
	RawPayload  datatypes.JSON `json:"raw_payload,omitempty" gorm:"type:jsonb;column:raw_payload"`
	ReceivedAt  time.Time      `json:"received_at" gorm:"column:received_at;index"`
	CreatedAt   time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (WebhookAuditLog) TableName() string {
	return "webhook_audit_logs"
}
