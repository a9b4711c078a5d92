package models

import (
	"time"

	"gorm.io/gorm"
)

// Team is a collection of users sharing access to team projects.
// OverSeatLimit is recomputed whenever membership or the subscription's
// seat count changes; while true, sending new invitations is blocked.
type Team struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:200;not null" json:"name"`
	OverSeatLimit bool           `gorm:"default:false" json:"over_seat_limit"`
	CreatedBy     uint           `json:"created_by"`
	Members       []User         `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Subscription  *Subscription  `gorm:"foreignKey:TeamID" json:"subscription,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Team) TableName() string { return "teams" }
