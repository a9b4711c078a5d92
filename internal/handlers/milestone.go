package handlers

import (
	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type MilestoneHandler struct {
	milestoneService *services.MilestoneService
}

func NewMilestoneHandler(milestoneService *services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// Create adds a milestone to a project
// POST /api/projects/:id/milestones
func (h *MilestoneHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestoneService.Create(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, milestone)
}

// List returns a project's milestones
// GET /api/projects/:id/milestones
func (h *MilestoneHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	milestones, err := h.milestoneService.List(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, milestones)
}

// Update applies partial updates to a milestone
// PUT /api/milestones/:id
func (h *MilestoneHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid milestone id")
		return
	}

	var req services.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestoneService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, milestone)
}

// Delete removes a milestone
// DELETE /api/milestones/:id
func (h *MilestoneHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid milestone id")
		return
	}

	if err := h.milestoneService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "milestone deleted successfully"})
}
