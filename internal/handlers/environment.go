package handlers

import (
	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type EnvironmentHandler struct {
	environmentService *services.EnvironmentService
}

func NewEnvironmentHandler(environmentService *services.EnvironmentService) *EnvironmentHandler {
	return &EnvironmentHandler{environmentService: environmentService}
}

// Create adds an environment to a project
// POST /api/projects/:id/environments
func (h *EnvironmentHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateEnvironmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	env, err := h.environmentService.Create(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, env)
}

// List returns a project's environments
// GET /api/projects/:id/environments
func (h *EnvironmentHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	envs, err := h.environmentService.List(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, envs)
}

// Delete removes an environment
// DELETE /api/environments/:id
func (h *EnvironmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid environment id")
		return
	}

	if err := h.environmentService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "environment deleted successfully"})
}
