package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment holds metadata for a file stored in external blob storage.
// EntityType/EntityID point at the owning record (test_case, test_result, run).
type Attachment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	EntityType  string         `gorm:"size:50;index:idx_attachments_entity;not null" json:"entity_type"`
	EntityID    uint           `gorm:"index:idx_attachments_entity;not null" json:"entity_id"`
	FileName    string         `gorm:"size:255;not null" json:"file_name"`
	Size        int64          `json:"size"`
	ContentType string         `gorm:"size:100" json:"content_type"`
	StorageKey  string         `gorm:"size:500;not null" json:"-"`
	UploadedBy  uint           `json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Attachment) TableName() string { return "attachments" }
