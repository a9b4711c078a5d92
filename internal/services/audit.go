package services

import (
	"encoding/json"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"gorm.io/gorm"
)

// AuditService persists audit records for privileged mutations.
type AuditService struct {
	db *gorm.DB
}

var globalAudit *AuditService

// InitAuditLogger sets up the global audit logger backed by db.
func InitAuditLogger(db *gorm.DB) {
	globalAudit = &AuditService{db: db}
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit row. Failures are logged and swallowed: auditing
// must never fail the mutation it describes.
func (s *AuditService) Record(level, module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	entry := models.AuditLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
	}
	if extra != nil {
		if data, err := json.Marshal(extra); err == nil {
			entry.Extra = string(data)
		}
		if teamID, ok := extra["team_id"].(uint); ok {
			entry.TeamID = &teamID
		}
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Errorf("[Audit] failed to write audit log: %v", err)
	}
}

// List returns recent audit rows, newest first.
func (s *AuditService) List(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.AuditLog
	err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// LogInfo records an info-level audit entry through the global logger.
// No-op until InitAuditLogger has run (keeps tests and early startup quiet).
func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	if globalAudit == nil {
		return
	}
	globalAudit.Record("info", module, action, message, userID, ip, userAgent, extra)
}

// LogWarn records a warning-level audit entry through the global logger.
func LogWarn(module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	if globalAudit == nil {
		return
	}
	globalAudit.Record("warning", module, action, message, userID, ip, userAgent, extra)
}
