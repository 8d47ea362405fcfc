package model

import (
	"time"
)

// WebhookConfig holds a tenant's shared webhook secret. Deliveries
// authenticate either by (tenant hint + matching secret) or, when no hint is
// present, by a global lookup of the secret itself.
type WebhookConfig struct {
	ID        int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  string    `json:"tenant_id" gorm:"column:tenant_id;uniqueIndex;type:text" validate:"required"`
	Secret    string    `json:"-" gorm:"column:secret;index;type:text" validate:"required,min=16"`
	Enabled   bool      `json:"enabled" gorm:"column:enabled;default:true"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (WebhookConfig) TableName() string {
	return "webhook_configs"
}

// Profile maps a provider-side user/device identifier to a tenant. Used when
// a delivery carries a user hint instead of a tenant hint.
type Profile struct {
	ID        int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"column:user_id;uniqueIndex;type:text" validate:"required"`
	TenantID  string    `json:"tenant_id" gorm:"column:tenant_id;index;type:text" validate:"required"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at,omitempty" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}
