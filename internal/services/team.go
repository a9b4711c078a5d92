package services

import (
	"context"
	"errors"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamService manages teams, membership and the invitation lifecycle.
type TeamService struct {
	db    *gorm.DB
	seats *SeatService
}

func NewTeamService(db *gorm.DB, seats *SeatService) *TeamService {
	return &TeamService{db: db, seats: seats}
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// CreateTeam creates a team and makes the creator its owner. A user can
// belong to at most one team.
func (s *TeamService) CreateTeam(req *CreateTeamRequest, creatorID uint) (*models.Team, error) {
	var team models.Team
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.First(&creator, creatorID).Error; err != nil {
			return err
		}
		if creator.TeamID != nil {
			return response.NewBadRequest("you already belong to a team")
		}

		team = models.Team{Name: req.Name, CreatedBy: creatorID}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", creatorID).
			Updates(map[string]interface{}{"team_id": team.ID, "role": models.RoleOwner}).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// GetTeam returns a team with its members and subscription preloaded.
func (s *TeamService) GetTeam(teamID uint) (*models.Team, error) {
	var team models.Team
	err := s.db.Preload("Members").Preload("Subscription").First(&team, teamID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("team not found")
		}
		return nil, err
	}
	return &team, nil
}

// InviteMember creates a pending, token-addressed invitation. Blocked while
// the team is over its seat limit: remediation comes first.
func (s *TeamService) InviteMember(teamID, inviterID uint, req *InviteMemberRequest) (*models.Invitation, error) {
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		return nil, response.NewBadRequest("unknown role")
	}
	if role == models.RoleOwner {
		return nil, response.NewBadRequest("the owner role cannot be granted by invitation")
	}

	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("team not found")
		}
		return nil, err
	}
	if team.OverSeatLimit {
		return nil, response.NewBadRequest("team is over its seat limit, remove members before inviting")
	}
	lapsed, err := subscriptionLapsed(s.db, teamID)
	if err != nil {
		return nil, err
	}
	if lapsed {
		return nil, response.NewBadRequest("team subscription is no longer active, renew before inviting")
	}

	var pending int64
	if err := s.db.Model(&models.Invitation{}).
		Where("team_id = ? AND email = ? AND status = ?", teamID, req.Email, models.InvitationPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, response.NewConflict("a pending invitation for this email already exists")
	}

	invitation := models.Invitation{
		Token:     uuid.NewString(),
		TeamID:    teamID,
		Email:     req.Email,
		Role:      role,
		InvitedBy: inviterID,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(models.InvitationTTL),
	}
	if err := s.db.Create(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListInvitations returns a team's invitations, newest first.
func (s *TeamService) ListInvitations(teamID uint) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := s.db.Where("team_id = ?", teamID).Order("created_at DESC").Find(&invitations).Error
	return invitations, err
}

// AcceptInvitation joins the accepting user to the inviting team. The state
// checks and the membership write happen in one transaction: the invitation
// may be raced by a cancel, another accept, or a seat change, and the
// transaction-fresh read is authoritative.
func (s *TeamService) AcceptInvitation(ctx context.Context, token string, userID uint) (*models.Invitation, error) {
	var invitation models.Invitation
	overdue := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("invitation not found")
			}
			return err
		}

		if invitation.Status != models.InvitationPending {
			return response.NewBadRequest("invitation is no longer actionable")
		}
		if invitation.IsExpired() {
			overdue = true
			return response.NewBadRequest("invitation has expired")
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if user.TeamID != nil {
			return response.NewBadRequest("you already belong to a team")
		}

		var team models.Team
		if err := tx.First(&team, invitation.TeamID).Error; err != nil {
			return err
		}
		if team.OverSeatLimit {
			return response.NewBadRequest("team is over its seat limit")
		}
		lapsed, err := subscriptionLapsed(tx, invitation.TeamID)
		if err != nil {
			return err
		}
		if lapsed {
			return response.NewBadRequest("team subscription is no longer active")
		}

		now := time.Now()
		if err := tx.Model(&invitation).Updates(map[string]interface{}{
			"status":      models.InvitationAccepted,
			"accepted_at": &now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{"team_id": invitation.TeamID, "role": invitation.Role}).Error; err != nil {
			return err
		}

		// Membership grew: recompute the seat flag on the fresh count.
		_, err = s.seats.reconcileTx(tx, invitation.TeamID)
		return err
	})
	if err != nil {
		// The rejection rolled the transaction back, so the terminal expired
		// state is written outside it. The sweeper covers any miss.
		if overdue {
			s.db.Model(&models.Invitation{}).
				Where("id = ? AND status = ?", invitation.ID, models.InvitationPending).
				Update("status", models.InvitationExpired)
		}
		return nil, err
	}

	s.seats.cache.Invalidate(ctx, invitation.TeamID)
	return &invitation, nil
}

// DeclineInvitation marks a pending invitation declined.
func (s *TeamService) DeclineInvitation(token string) error {
	return s.transitionInvitation(token, models.InvitationDeclined)
}

// CancelInvitation lets the team revoke a pending invitation.
func (s *TeamService) CancelInvitation(invitationID, teamID uint) error {
	result := s.db.Model(&models.Invitation{}).
		Where("id = ? AND team_id = ? AND status = ?", invitationID, teamID, models.InvitationPending).
		Update("status", models.InvitationCanceled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("pending invitation not found")
	}
	return nil
}

func (s *TeamService) transitionInvitation(token, target string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		if err := tx.Where("token = ?", token).First(&invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("invitation not found")
			}
			return err
		}
		if !invitation.IsActionable() {
			return response.NewBadRequest("invitation is no longer actionable")
		}
		return tx.Model(&invitation).Update("status", target).Error
	})
}

// LeaveTeam detaches the user from their team and reconciles the seat flag.
// The last owner cannot leave; ownership must be handed over first.
func (s *TeamService) LeaveTeam(ctx context.Context, userID uint) error {
	var teamID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if user.TeamID == nil {
			return response.NewBadRequest("you do not belong to a team")
		}
		teamID = *user.TeamID

		if user.Role == models.RoleOwner {
			var owners int64
			if err := tx.Model(&models.User{}).
				Where("team_id = ? AND role = ?", teamID, models.RoleOwner).
				Count(&owners).Error; err != nil {
				return err
			}
			if owners <= 1 {
				return response.NewBadRequest("the last owner cannot leave the team")
			}
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{"team_id": nil, "role": models.RoleMember}).Error; err != nil {
			return err
		}

		_, err := s.seats.reconcileTx(tx, teamID)
		return err
	})
	if err != nil {
		return err
	}

	s.seats.cache.Invalidate(ctx, teamID)
	return nil
}

// subscriptionLapsed reports whether the team once had a subscription that no
// longer grants seats. Teams that never subscribed stay unrestricted; teams
// whose billing lapsed must not grow until it is restored.
func subscriptionLapsed(tx *gorm.DB, teamID uint) (bool, error) {
	var sub models.Subscription
	if err := tx.Where("team_id = ?", teamID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return !sub.IsActive(), nil
}

// ExpireInvitations flips overdue pending invitations to expired.
// Returns the number of invitations expired.
func (s *TeamService) ExpireInvitations() (int64, error) {
	result := s.db.Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, time.Now()).
		Update("status", models.InvitationExpired)
	return result.RowsAffected, result.Error
}
