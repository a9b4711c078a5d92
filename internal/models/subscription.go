package models

import (
	"time"
)

// Subscription status constants for well-known billing states.
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
	SubscriptionTrialing = "trialing"
)

// Subscription records the seat capacity a team has purchased. It is created
// on checkout completion and updated on seat-count or status changes; the
// payment provider itself is external.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	TeamID           uint       `gorm:"uniqueIndex;not null" json:"team_id"`
	Seats            int        `gorm:"not null;default:1" json:"seats"`
	Status           string     `gorm:"size:50;default:active" json:"status"`
	ExternalID       string     `gorm:"size:255" json:"-"` // provider subscription id
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// IsActive reports whether the subscription grants seats right now.
// Past-due subscriptions keep their seats until canceled.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionTrialing || s.Status == SubscriptionPastDue
}
