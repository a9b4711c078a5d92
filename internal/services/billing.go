package services

import (
	"context"
	"errors"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// BillingService applies subscription state transitions reported by the
// payment provider. Charging, proration and checkout flows are external;
// only the resulting seat capacity and status live here.
type BillingService struct {
	db    *gorm.DB
	seats *SeatService
}

func NewBillingService(db *gorm.DB, seats *SeatService) *BillingService {
	return &BillingService{db: db, seats: seats}
}

type CheckoutCompletedRequest struct {
	Seats      int    `json:"seats" binding:"required,min=1"`
	ExternalID string `json:"external_id"`
}

type UpdateSeatsRequest struct {
	Seats int `json:"seats" binding:"required,min=1"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active past_due canceled trialing"`
}

// CheckoutCompleted creates or replaces the team's subscription after a
// successful checkout, then reconciles the seat flag.
func (s *BillingService) CheckoutCompleted(ctx context.Context, teamID uint, req *CheckoutCompletedRequest) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Team{}, teamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("team not found")
			}
			return err
		}

		err := tx.Where("team_id = ?", teamID).First(&sub).Error
		switch {
		case err == nil:
			return tx.Model(&sub).Updates(map[string]interface{}{
				"seats":       req.Seats,
				"status":      models.SubscriptionActive,
				"external_id": req.ExternalID,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			sub = models.Subscription{
				TeamID:     teamID,
				Seats:      req.Seats,
				Status:     models.SubscriptionActive,
				ExternalID: req.ExternalID,
			}
			return tx.Create(&sub).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.seats.Reconcile(ctx, teamID); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSeats changes the purchased seat count and reconciles.
func (s *BillingService) UpdateSeats(ctx context.Context, teamID uint, seats int) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("team_id = ?", teamID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBadRequest("team has no subscription")
		}
		return nil, err
	}

	if err := s.db.Model(&sub).Update("seats", seats).Error; err != nil {
		return nil, err
	}

	if _, err := s.seats.Reconcile(ctx, teamID); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateStatus records a provider-reported status transition and reconciles,
// since a cancellation revokes seats.
func (s *BillingService) UpdateStatus(ctx context.Context, teamID uint, status string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("team_id = ?", teamID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBadRequest("team has no subscription")
		}
		return nil, err
	}

	if err := s.db.Model(&sub).Update("status", status).Error; err != nil {
		return nil, err
	}

	if _, err := s.seats.Reconcile(ctx, teamID); err != nil {
		return nil, err
	}
	return &sub, nil
}
