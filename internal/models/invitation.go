package models

import (
	"time"

	"gorm.io/gorm"
)

// Invitation states. PENDING is the only actionable state; the rest are final.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
	InvitationCanceled = "canceled"
)

// InvitationTTL is how long an invitation stays actionable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a token-addressed, time-limited offer to join a team.
type Invitation struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Token      string         `gorm:"uniqueIndex;size:64;not null" json:"-"`
	TeamID     uint           `gorm:"index;not null" json:"team_id"`
	Team       *Team          `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Email      string         `gorm:"size:255;not null" json:"email"`
	Role       string         `gorm:"size:50;default:member" json:"role"`
	InvitedBy  uint           `json:"invited_by"`
	Status     string         `gorm:"size:20;default:pending;index" json:"status"`
	ExpiresAt  time.Time      `gorm:"index" json:"expires_at"`
	AcceptedAt *time.Time     `json:"accepted_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invitation) TableName() string { return "invitations" }

// IsExpired returns true if the invitation is past its expiry time.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsActionable returns true if the invitation can still be accepted or declined.
func (i *Invitation) IsActionable() bool {
	return i.Status == InvitationPending && !i.IsExpired()
}
