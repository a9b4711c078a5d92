package handlers

import (
	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type IntegrationHandler struct {
	integrationService *services.IntegrationService
}

func NewIntegrationHandler(integrationService *services.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService}
}

// Create registers a webhook target for the caller's team
// POST /api/integrations
func (h *IntegrationHandler) Create(c *gin.Context) {
	var req services.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	integration, err := h.integrationService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, integration)
}

// List returns the caller's team integrations
// GET /api/integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	integrations, err := h.integrationService.List(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, integrations)
}

// Update applies partial updates to an integration
// PUT /api/integrations/:id
func (h *IntegrationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid integration id")
		return
	}

	var req services.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	integration, err := h.integrationService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, integration)
}

// Delete removes an integration
// DELETE /api/integrations/:id
func (h *IntegrationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid integration id")
		return
	}

	if err := h.integrationService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "integration deleted successfully"})
}
