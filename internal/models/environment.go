package models

import (
	"time"

	"gorm.io/gorm"
)

// Environment describes a deployment target test runs execute against.
type Environment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	URL       string         `gorm:"size:500" json:"url"`
	Variables string         `gorm:"type:text" json:"variables"` // JSON key/value pairs
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Environment) TableName() string { return "environments" }
