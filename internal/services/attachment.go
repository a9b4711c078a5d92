package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxAttachmentSize caps uploads at 20 MiB.
const MaxAttachmentSize = 20 << 20

var attachmentEntities = map[string]bool{
	"test_case":   true,
	"test_result": true,
	"test_run":    true,
}

// AttachmentService stores uploaded files on local disk and tracks their
// metadata. StorageKey is opaque so the backend can move to blob storage
// without schema changes.
type AttachmentService struct {
	db      *gorm.DB
	access  *AccessService
	baseDir string
}

func NewAttachmentService(db *gorm.DB, access *AccessService, baseDir string) *AttachmentService {
	if baseDir == "" {
		baseDir = "uploads"
	}
	return &AttachmentService{db: db, access: access, baseDir: baseDir}
}

// Upload persists the file and its metadata after an access check on the
// owning project.
func (s *AttachmentService) Upload(projectID, userID uint, entityType string, entityID uint, fileName, contentType string, size int64, content io.Reader) (*models.Attachment, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}
	if !attachmentEntities[entityType] {
		return nil, response.NewBadRequest("unknown attachment entity type")
	}
	if size <= 0 || size > MaxAttachmentSize {
		return nil, response.NewBadRequest("attachment size must be between 1 byte and 20 MiB")
	}

	storageKey := fmt.Sprintf("%d/%s%s", projectID, uuid.NewString(), sanitizeExt(fileName))
	path := filepath.Join(s.baseDir, filepath.FromSlash(storageKey))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(dst, io.LimitReader(content, MaxAttachmentSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if written > MaxAttachmentSize {
		os.Remove(path)
		return nil, response.NewBadRequest("attachment exceeds the 20 MiB limit")
	}

	attachment := models.Attachment{
		ProjectID:   projectID,
		EntityType:  entityType,
		EntityID:    entityID,
		FileName:    filepath.Base(fileName),
		Size:        written,
		ContentType: contentType,
		StorageKey:  storageKey,
		UploadedBy:  userID,
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		os.Remove(path)
		return nil, err
	}
	return &attachment, nil
}

// List returns the attachments hanging off one entity.
func (s *AttachmentService) List(projectID, userID uint, entityType string, entityID uint) ([]models.Attachment, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	var attachments []models.Attachment
	err := s.db.Where("project_id = ? AND entity_type = ? AND entity_id = ?", projectID, entityType, entityID).
		Order("created_at DESC").Find(&attachments).Error
	return attachments, err
}

// Open returns the attachment metadata and a reader over its content.
// The caller must close the reader.
func (s *AttachmentService) Open(attachmentID, userID uint) (*models.Attachment, io.ReadCloser, error) {
	attachment, err := s.get(attachmentID, userID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(attachment.StorageKey)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, response.NewNotFound("attachment content is missing")
		}
		return nil, nil, err
	}
	return attachment, f, nil
}

// Delete removes the metadata row and the stored file.
func (s *AttachmentService) Delete(attachmentID, userID uint) error {
	attachment, err := s.get(attachmentID, userID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(attachment).Error; err != nil {
		return err
	}
	// Content removal is best effort; the soft-deleted row keeps the key.
	os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(attachment.StorageKey)))
	return nil
}

func (s *AttachmentService) get(attachmentID, userID uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := s.db.First(&attachment, attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("attachment not found")
		}
		return nil, err
	}
	if _, _, err := s.access.RequireProjectAccess(attachment.ProjectID, userID); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
