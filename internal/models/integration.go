package models

import (
	"time"

	"gorm.io/gorm"
)

// Integration is a team-level outbound webhook target notified when a test
// run is closed (Slack incoming webhooks or any JSON-accepting endpoint).
type Integration struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TeamID     uint           `gorm:"index;not null" json:"team_id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Type       string         `gorm:"size:50;default:webhook" json:"type"` // webhook, slack
	WebhookURL string         `gorm:"size:500;not null" json:"webhook_url"`
	Secret     string         `gorm:"size:255" json:"-"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedBy  uint           `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Integration) TableName() string { return "integrations" }
