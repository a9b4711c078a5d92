package handlers

import (
	"strconv"

	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService  *services.AuditService
	accessService *services.AccessService
}

func NewAuditHandler(auditService *services.AuditService, accessService *services.AccessService) *AuditHandler {
	return &AuditHandler{auditService: auditService, accessService: accessService}
}

// List returns recent audit entries, owner/admin only
// GET /api/audit-logs?limit=100
func (h *AuditHandler) List(c *gin.Context) {
	if _, err := h.accessService.RequireRole(middleware.GetUserID(c), models.RoleOwner, models.RoleAdmin); err != nil {
		response.Error(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.auditService.List(limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}
