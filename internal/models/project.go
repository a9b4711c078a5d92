package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is the unit of access control. A project with a nil TeamID is
// visible only to its creator; with a non-nil TeamID it is visible to the
// creator and every current member of that team. Creator access survives
// the creator leaving the team.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PublicID    string         `gorm:"uniqueIndex:idx_projects_public_id;size:16;not null" json:"public_id"`
	Key         string         `gorm:"uniqueIndex:idx_projects_creator_key;size:20;not null" json:"key"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedBy   uint           `gorm:"uniqueIndex:idx_projects_creator_key;index" json:"created_by"`
	TeamID      *uint          `gorm:"index" json:"team_id"`
	IsArchived  bool           `gorm:"default:false" json:"is_archived"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
