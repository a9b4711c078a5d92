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

type BillingHandler struct {
	db             *gorm.DB
	billingService *services.BillingService
	accessService  *services.AccessService
}

func NewBillingHandler(db *gorm.DB, billingService *services.BillingService, accessService *services.AccessService) *BillingHandler {
	return &BillingHandler{db: db, billingService: billingService, accessService: accessService}
}

// callerTeam gates billing changes to the team's owner or admin and returns
// the team ID.
func (h *BillingHandler) callerTeam(c *gin.Context) (uint, error) {
	user, err := h.accessService.RequireRole(middleware.GetUserID(c), models.RoleOwner, models.RoleAdmin)
	if err != nil {
		return 0, err
	}
	if user.TeamID == nil {
		return 0, response.NewBadRequest("you do not belong to a team")
	}
	return *user.TeamID, nil
}

// CheckoutCompleted records a completed checkout for the caller's team
// POST /api/billing/checkout
func (h *BillingHandler) CheckoutCompleted(c *gin.Context) {
	teamID, err := h.callerTeam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.CheckoutCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.billingService.CheckoutCompleted(c.Request.Context(), teamID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	services.LogInfo("billing", "checkout_completed", "subscription activated",
		&userID, c.ClientIP(), c.Request.UserAgent(),
		map[string]interface{}{"team_id": teamID, "seats": req.Seats})
	response.Success(c, sub)
}

// UpdateSeats changes the purchased seat count
// PUT /api/billing/seats
func (h *BillingHandler) UpdateSeats(c *gin.Context) {
	teamID, err := h.callerTeam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.billingService.UpdateSeats(c.Request.Context(), teamID, req.Seats)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// UpdateStatus records a provider-reported status transition
// PUT /api/billing/status
func (h *BillingHandler) UpdateStatus(c *gin.Context) {
	teamID, err := h.callerTeam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.billingService.UpdateStatus(c.Request.Context(), teamID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// GetSubscription returns the caller team's subscription
// GET /api/billing/subscription
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	teamID, err := h.callerTeam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var sub models.Subscription
	if err := h.db.Where("team_id = ?", teamID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, response.NewNotFound("team has no subscription"))
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, &sub)
}
