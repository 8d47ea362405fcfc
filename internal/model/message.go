package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MessageTypeText  = "text"
	MessageTypeOther = "other"
)

// InboundMessage represents a normalized inbound webhook message.
// (tenant_id, message_id) is the idempotency key: redelivery of the same
// message updates the stored row in place.
type InboundMessage struct {
	ID               int64          `json:"-" gorm:"column:id;primaryKey;autoIncrement"`
	TenantID         string         `json:"tenant_id" gorm:"column:tenant_id;uniqueIndex:idx_messages_tenant_message_id;type:text" validate:"required"`
	MessageID        string         `json:"message_id" gorm:"column:message_id;uniqueIndex:idx_messages_tenant_message_id;type:text" validate:"required"`
	Jid              string         `json:"jid" gorm:"column:jid;index;type:text"`
	PushName         string         `json:"push_name,omitempty" gorm:"column:push_name;type:text"`
	Phone            string         `json:"phone,omitempty" gorm:"column:phone;index;type:text"` // Digits only, derived from the JID
	MessageType      string         `json:"message_type,omitempty" gorm:"column:message_type;type:text"`
	Body             string         `json:"body,omitempty" gorm:"column:body;type:text"`
	IsGroup          bool           `json:"is_group,omitempty" gorm:"column:is_group;default:false"`
	GroupName        string         `json:"group_name,omitempty" gorm:"column:group_name;type:text"`
	AvatarURL        string         `json:"avatar_url,omitempty" gorm:"column:avatar_url;type:text"`
	MessageTimestamp int64          `json:"message_timestamp,omitempty" gorm:"column:message_timestamp;index"`
	RawPayload       datatypes.JSON `json:"raw_payload,omitempty" gorm:"type:jsonb;column:raw_payload"` // Stored verbatim for audit/replay
	CreatedAt        time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (InboundMessage) TableName() string {
	return "messages"
}

// GetUpdatableFields returns the column names refreshed during an ON CONFLICT
// clause. Excludes the primary key, the idempotency key and created_at.
func (m *InboundMessage) GetUpdatableFields() []string {
	return []string{
		"push_name", "phone", "message_type", "body", "is_group", "group_name",
		"avatar_url", "message_timestamp", "raw_payload", "updated_at",
	}
}
