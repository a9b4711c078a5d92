package handlers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// Upload stores a multipart file against an entity
// POST /api/projects/:id/attachments?entity_type=test_case&entity_id=42
func (h *AttachmentHandler) Upload(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	entityType := c.Query("entity_type")
	entityID, err := strconv.ParseUint(c.Query("entity_id"), 10, 32)
	if err != nil || entityID == 0 {
		response.BadRequest(c, "invalid entity id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	defer f.Close()

	attachment, err := h.attachmentService.Upload(
		projectID, middleware.GetUserID(c),
		entityType, uint(entityID),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, f,
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// List returns an entity's attachments
// GET /api/projects/:id/attachments?entity_type=test_case&entity_id=42
func (h *AttachmentHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	entityID, err := strconv.ParseUint(c.Query("entity_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid entity id")
		return
	}

	attachments, err := h.attachmentService.List(
		projectID, middleware.GetUserID(c), c.Query("entity_type"), uint(entityID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, attachments)
}

// Download streams the attachment content
// GET /api/attachments/:id
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid attachment id")
		return
	}

	attachment, content, err := h.attachmentService.Open(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer content.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	c.Header("Content-Type", attachment.ContentType)
	c.Header("Content-Length", strconv.FormatInt(attachment.Size, 10))
	io.Copy(c.Writer, content)
}

// Delete removes an attachment
// DELETE /api/attachments/:id
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid attachment id")
		return
	}

	if err := h.attachmentService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "attachment deleted successfully"})
}
