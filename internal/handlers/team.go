package handlers

import (
	"errors"

	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db            *gorm.DB
	teamService   *services.TeamService
	seatService   *services.SeatService
	accessService *services.AccessService
}

func NewTeamHandler(db *gorm.DB, teamService *services.TeamService, seatService *services.SeatService, accessService *services.AccessService) *TeamHandler {
	return &TeamHandler{db: db, teamService: teamService, seatService: seatService, accessService: accessService}
}

// callerTeamID resolves the caller's current team from the store.
func (h *TeamHandler) callerTeamID(c *gin.Context) (uint, error) {
	var user models.User
	if err := h.db.First(&user, middleware.GetUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, response.NewUnauthorized("authentication required")
		}
		return 0, err
	}
	if user.TeamID == nil {
		return 0, response.NewBadRequest("you do not belong to a team")
	}
	return *user.TeamID, nil
}

// Create creates a team owned by the caller
// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req services.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.teamService.CreateTeam(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// Get returns the caller's team with members and subscription
// GET /api/teams/mine
func (h *TeamHandler) Get(c *gin.Context) {
	teamID, err := h.callerTeamID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	team, err := h.teamService.GetTeam(teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, team)
}

// SeatStatus returns the cached seat standing of the caller's team
// GET /api/teams/mine/seats
func (h *TeamHandler) SeatStatus(c *gin.Context) {
	teamID, err := h.callerTeamID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.seatService.Status(c.Request.Context(), teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

type removeMembersRequest struct {
	MemberIDs []uint `json:"member_ids" binding:"required"`
}

// RemoveMembers performs the forced removal that brings an over-limit team
// back within its seat allowance
// POST /api/teams/mine/members/remove
func (h *TeamHandler) RemoveMembers(c *gin.Context) {
	teamID, err := h.callerTeamID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req removeMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.seatService.RemoveMembers(c.Request.Context(), userID, teamID, req.MemberIDs); err != nil {
		response.Error(c, err)
		return
	}

	services.LogWarn("team", "remove_members", "members removed to satisfy seat limit",
		&userID, c.ClientIP(), c.Request.UserAgent(),
		map[string]interface{}{"team_id": teamID, "member_ids": req.MemberIDs})
	response.Success(c, gin.H{"message": "members removed"})
}

// Invite creates a pending invitation
// POST /api/teams/mine/invitations
func (h *TeamHandler) Invite(c *gin.Context) {
	teamID, err := h.callerTeamID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	if _, err := h.accessService.RequireRole(userID, models.RoleOwner, models.RoleAdmin, models.RoleManager); err != nil {
		response.Error(c, err)
		return
	}

	var req services.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invitation, err := h.teamService.InviteMember(teamID, userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invitation)
}

// ListInvitations returns the team's invitations
// GET /api/teams/mine/invitations
func (h *TeamHandler) ListInvitations(c *gin.Context) {
	teamID, err := h.callerTeamID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	invitations, err := h.teamService.ListInvitations(teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, invitations)
}

// CancelInvitation revokes a pending invitation. Gated like invitation
// creation: owner, admin or manager.
// DELETE /api/teams/mine/invitations/:id
func (h *TeamHandler) CancelInvitation(c *gin.Context) {
	teamID, err := h.callerTeamID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.accessService.RequireRole(middleware.GetUserID(c), models.RoleOwner, models.RoleAdmin, models.RoleManager); err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid invitation id")
		return
	}

	if err := h.teamService.CancelInvitation(id, teamID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "invitation canceled"})
}

// Accept joins the caller to the inviting team
// POST /api/invitations/:token/accept
func (h *TeamHandler) Accept(c *gin.Context) {
	invitation, err := h.teamService.AcceptInvitation(c.Request.Context(), c.Param("token"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, invitation)
}

// Decline marks the invitation declined
// POST /api/invitations/:token/decline
func (h *TeamHandler) Decline(c *gin.Context) {
	if err := h.teamService.DeclineInvitation(c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "invitation declined"})
}

// Leave detaches the caller from their team
// POST /api/teams/mine/leave
func (h *TeamHandler) Leave(c *gin.Context) {
	if err := h.teamService.LeaveTeam(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "left team"})
}
