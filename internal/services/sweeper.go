package services

import (
	"context"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SweeperService runs periodic housekeeping: overdue invitations are flipped
// to expired, and teams whose subscriptions changed out of band get their
// seat flag reconciled.
type SweeperService struct {
	db            *gorm.DB
	teams         *TeamService
	seats         *SeatService
	cronScheduler *cron.Cron
}

func NewSweeperService(db *gorm.DB, teams *TeamService, seats *SeatService) *SweeperService {
	return &SweeperService{db: db, teams: teams, seats: seats}
}

// StartScheduler begins the hourly sweep.
func (s *SweeperService) StartScheduler() {
	s.cronScheduler = cron.New()

	if _, err := s.cronScheduler.AddFunc("@hourly", s.Sweep); err != nil {
		logger.Errorf("[Sweeper] Failed to add cron job: %v", err)
		return
	}

	s.cronScheduler.Start()
	logger.Infof("[Sweeper] Scheduler started (hourly)")
}

// StopScheduler stops the sweep.
func (s *SweeperService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// Sweep performs one housekeeping pass.
func (s *SweeperService) Sweep() {
	expired, err := s.teams.ExpireInvitations()
	if err != nil {
		logger.Errorf("[Sweeper] Failed to expire invitations: %v", err)
	} else if expired > 0 {
		logger.Infof("[Sweeper] Expired %d overdue invitations", expired)
	}

	if err := s.reconcileAll(); err != nil {
		logger.Errorf("[Sweeper] Seat reconciliation failed: %v", err)
	}
}

func (s *SweeperService) reconcileAll() error {
	var teamIDs []uint
	if err := s.db.Model(&models.Team{}).Pluck("id", &teamIDs).Error; err != nil {
		return err
	}

	ctx := context.Background()
	for _, teamID := range teamIDs {
		if _, err := s.seats.Reconcile(ctx, teamID); err != nil {
			logger.Errorf("[Sweeper] Reconcile team %d: %v", teamID, err)
		}
	}
	return nil
}
