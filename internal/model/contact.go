package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Contact represents a conversation counterpart identified by (tenant_id, jid).
// The attribution columns follow first-write-wins semantics: a field set once
// is never overwritten by a later webhook.
type Contact struct {
	ID           string         `json:"id" gorm:"column:id;primaryKey;type:uuid"`
	TenantID     string         `json:"tenant_id" gorm:"column:tenant_id;uniqueIndex:idx_contacts_tenant_jid;type:text" validate:"required"`
	Jid          string         `json:"jid" gorm:"column:jid;uniqueIndex:idx_contacts_tenant_jid;type:text" validate:"required"`
	Phone        string         `json:"phone,omitempty" gorm:"column:phone;index;type:text"`
	PushName     string         `json:"push_name,omitempty" gorm:"column:push_name;type:text"`
	AvatarURL    string         `json:"avatar_url,omitempty" gorm:"column:avatar_url;type:text"`
	Origin       string         `json:"origin,omitempty" gorm:"column:origin;type:text"`
	UtmSource    string         `json:"utm_source,omitempty" gorm:"column:utm_source;type:text"`
	UtmMedium    string         `json:"utm_medium,omitempty" gorm:"column:utm_medium;type:text"`
	UtmCampaign  string         `json:"utm_campaign,omitempty" gorm:"column:utm_campaign;type:text"`
	UtmContent   string         `json:"utm_content,omitempty" gorm:"column:utm_content;type:text"`
	UtmTerm      string         `json:"utm_term,omitempty" gorm:"column:utm_term;type:text"`
	TrackingData datatypes.JSON `json:"tracking_data,omitempty" gorm:"type:jsonb;column:tracking_data"`
	FirstSeenAt  time.Time      `json:"first_seen_at,omitempty" gorm:"column:first_seen_at"`
	LastSeenAt   time.Time      `json:"last_seen_at,omitempty" gorm:"column:last_seen_at"`
	CreatedAt    time.Time      `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Contact) TableName() string {
	return "contacts"
}

// GetUpdatableFields returns the column names refreshed when an existing
// contact row is re-saved.
func (c *Contact) GetUpdatableFields() []string {
	return []string{
		"phone", "push_name", "avatar_url", "origin",
		"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term",
		"tracking_data", "last_seen_at", "updated_at",
	}
}

// Tracking decodes the tracking_data column. A missing or empty column yields
// a zero TrackingData, never an error.
func (c *Contact) Tracking() (*TrackingData, error) {
	td := &TrackingData{}
	if len(c.TrackingData) == 0 {
		return td, nil
	}
	if err := json.Unmarshal(c.TrackingData, td); err != nil {
		return nil, fmt.Errorf("failed to decode tracking data for contact %s: %w", c.ID, err)
	}
	return td, nil
}

// SetTracking encodes td into the tracking_data column.
func (c *Contact) SetTracking(td *TrackingData) error {
	raw, err := json.Marshal(td)
	if err != nil {
		return fmt.Errorf("failed to encode tracking data for contact %s: %w", c.ID, err)
	}
	c.TrackingData = datatypes.JSON(raw)
	return nil
}
