package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxRemovalBatch bounds the forced-removal list to keep the transaction small.
const MaxRemovalBatch = 50

// SeatService keeps a team's over_seat_limit flag consistent with its
// member count and purchased seats, and runs the forced-removal protocol
// that brings an over-limit team back into compliance.
type SeatService struct {
	db    *gorm.DB
	cache TeamStatusCache
}

func NewSeatService(db *gorm.DB, cache TeamStatusCache) *SeatService {
	return &SeatService{db: db, cache: cache}
}

// Reconcile recomputes and persists the team's over_seat_limit flag.
// Idempotent: repeated calls with unchanged state produce the same value.
// Called after subscription changes and membership additions.
func (s *SeatService) Reconcile(ctx context.Context, teamID uint) (bool, error) {
	var overLimit bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		overLimit, err = s.reconcileTx(tx, teamID)
		return err
	})
	if err != nil {
		return false, err
	}
	s.cache.Invalidate(ctx, teamID)
	return overLimit, nil
}

// reconcileTx recomputes the flag from state read inside tx.
func (s *SeatService) reconcileTx(tx *gorm.DB, teamID uint) (bool, error) {
	var team models.Team
	if err := tx.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, response.NewNotFound("team not found")
		}
		return false, err
	}

	seats := 0
	var sub models.Subscription
	err := tx.Where("team_id = ?", teamID).First(&sub).Error
	switch {
	case err == nil:
		if sub.IsActive() {
			seats = sub.Seats
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No subscription: every member is over the (zero-seat) limit,
		// but teams without billing are not flagged.
		seats = 0
	default:
		return false, err
	}

	var memberCount int64
	if err := tx.Model(&models.User{}).Where("team_id = ?", teamID).Count(&memberCount).Error; err != nil {
		return false, err
	}

	overLimit := seats > 0 && memberCount > int64(seats)
	if team.OverSeatLimit != overLimit {
		if err := tx.Model(&models.Team{}).Where("id = ?", teamID).Update("over_seat_limit", overLimit).Error; err != nil {
			return false, err
		}
	}
	return overLimit, nil
}

// Status returns the team's seat status, read through the cache.
func (s *SeatService) Status(ctx context.Context, teamID uint) (*TeamStatus, error) {
	if cached, ok := s.cache.Get(ctx, teamID); ok {
		return cached, nil
	}

	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("team not found")
		}
		return nil, err
	}

	seats := 0
	var sub models.Subscription
	if err := s.db.Where("team_id = ?", teamID).First(&sub).Error; err == nil && sub.IsActive() {
		seats = sub.Seats
	}

	var memberCount int64
	if err := s.db.Model(&models.User{}).Where("team_id = ?", teamID).Count(&memberCount).Error; err != nil {
		return nil, err
	}

	status := &TeamStatus{
		TeamID:        teamID,
		MemberCount:   int(memberCount),
		Seats:         seats,
		OverSeatLimit: team.OverSeatLimit,
	}
	s.cache.Set(ctx, status)
	return status, nil
}

// RemoveMembers executes the forced-removal protocol: the caller (admin or
// manager of the team, verified fresh inside the transaction) submits the
// exact list of members to detach so that the remaining count matches the
// purchased seats. All validation re-reads state inside one transaction so
// two concurrent removal attempts cannot both succeed on a stale count.
func (s *SeatService) RemoveMembers(ctx context.Context, callerID, teamID uint, memberIDs []uint) error {
	if len(memberIDs) == 0 {
		return response.NewBadRequest("member list must not be empty")
	}
	if len(memberIDs) > MaxRemovalBatch {
		return response.NewBadRequest(fmt.Sprintf("member list exceeds the maximum of %d", MaxRemovalBatch))
	}

	seen := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		if id == 0 {
			return response.NewBadRequest("member list contains an invalid id")
		}
		if id == callerID {
			return response.NewBadRequest("you cannot remove yourself")
		}
		if seen[id] {
			return response.NewBadRequest("member list contains duplicate ids")
		}
		seen[id] = true
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent removals against the same team. sqlite has no
		// row locks; its single-writer transactions serialize on their own.
		teamQuery := tx
		if tx.Dialector.Name() != "sqlite" {
			teamQuery = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var team models.Team
		if err := teamQuery.First(&team, teamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("team not found")
			}
			return err
		}

		// Fresh role and membership check; the role gate at the HTTP layer
		// is only a first pass.
		var caller models.User
		if err := tx.First(&caller, callerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewUnauthorized("authentication required")
			}
			return err
		}
		if caller.TeamID == nil || *caller.TeamID != teamID {
			return response.NewForbidden("caller is not a member of this team")
		}
		if caller.Role != models.RoleAdmin && caller.Role != models.RoleManager {
			return response.NewForbidden("removing members requires the admin or manager role")
		}

		var sub models.Subscription
		if err := tx.Where("team_id = ?", teamID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewBadRequest("team has no active subscription")
			}
			return err
		}
		if !sub.IsActive() {
			return response.NewBadRequest("team has no active subscription")
		}

		var memberCount int64
		if err := tx.Model(&models.User{}).Where("team_id = ?", teamID).Count(&memberCount).Error; err != nil {
			return err
		}

		required := int(memberCount) - sub.Seats
		if required <= 0 {
			return response.NewBadRequest("team is not over its seat limit")
		}
		if len(memberIDs) != required {
			return response.NewBadRequest(fmt.Sprintf("exactly %d members must be removed, got %d", required, len(memberIDs)))
		}

		// Every submitted id must be a current member.
		var matching int64
		if err := tx.Model(&models.User{}).
			Where("team_id = ? AND id IN ?", teamID, memberIDs).
			Count(&matching).Error; err != nil {
			return err
		}
		if matching != int64(len(memberIDs)) {
			return response.NewBadRequest("member list contains users who are not team members")
		}

		result := tx.Model(&models.User{}).
			Where("team_id = ? AND id IN ?", teamID, memberIDs).
			Updates(map[string]interface{}{
				"team_id": nil,
				"role":    models.RoleMember,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(memberIDs)) {
			// A concurrent change slipped between the count and the update.
			return response.NewBadRequest("team membership changed, please retry")
		}

		if _, err := s.reconcileTx(tx, teamID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, teamID)
	LogInfo("Teams", "ForcedRemoval",
		fmt.Sprintf("removed %d members from team %d to restore seat compliance", len(memberIDs), teamID),
		&callerID, "", "", map[string]interface{}{"team_id": teamID, "member_ids": memberIDs})
	return nil
}
