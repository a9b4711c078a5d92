package services

import (
	"errors"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// IntegrationService manages a team's outbound webhook configurations.
// Managing integrations is an admin-level action.
type IntegrationService struct {
	db     *gorm.DB
	access *AccessService
}

func NewIntegrationService(db *gorm.DB, access *AccessService) *IntegrationService {
	return &IntegrationService{db: db, access: access}
}

type CreateIntegrationRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Type       string `json:"type" binding:"omitempty,oneof=webhook slack"`
	WebhookURL string `json:"webhook_url" binding:"required,url,max=500"`
	Secret     string `json:"secret" binding:"omitempty,max=255"`
}

type UpdateIntegrationRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=100"`
	WebhookURL *string `json:"webhook_url" binding:"omitempty,url,max=500"`
	Secret     *string `json:"secret" binding:"omitempty,max=255"`
	IsActive   *bool   `json:"is_active"`
}

// Create registers a webhook target for the caller's team.
func (s *IntegrationService) Create(userID uint, req *CreateIntegrationRequest) (*models.Integration, error) {
	user, err := s.access.RequireRole(userID, models.RoleOwner, models.RoleAdmin, models.RoleManager)
	if err != nil {
		return nil, err
	}
	if user.TeamID == nil {
		return nil, response.NewBadRequest("you do not belong to a team")
	}

	integrationType := req.Type
	if integrationType == "" {
		integrationType = "webhook"
	}

	integration := models.Integration{
		TeamID:     *user.TeamID,
		Name:       req.Name,
		Type:       integrationType,
		WebhookURL: req.WebhookURL,
		Secret:     req.Secret,
		IsActive:   true,
		CreatedBy:  userID,
	}
	if err := s.db.Create(&integration).Error; err != nil {
		return nil, err
	}
	return &integration, nil
}

// List returns the caller's team integrations.
func (s *IntegrationService) List(userID uint) ([]models.Integration, error) {
	user, err := s.access.RequireRole(userID, models.RoleOwner, models.RoleAdmin, models.RoleManager)
	if err != nil {
		return nil, err
	}
	if user.TeamID == nil {
		return nil, response.NewBadRequest("you do not belong to a team")
	}

	var integrations []models.Integration
	err = s.db.Where("team_id = ?", *user.TeamID).Order("created_at DESC").Find(&integrations).Error
	return integrations, err
}

// Update applies partial updates to one of the caller's team integrations.
func (s *IntegrationService) Update(integrationID, userID uint, req *UpdateIntegrationRequest) (*models.Integration, error) {
	integration, err := s.get(integrationID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.WebhookURL != nil {
		updates["webhook_url"] = *req.WebhookURL
	}
	if req.Secret != nil {
		updates["secret"] = *req.Secret
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return integration, nil
	}

	if err := s.db.Model(integration).Updates(updates).Error; err != nil {
		return nil, err
	}
	return integration, nil
}

// Delete removes a team integration. Stricter than the other operations:
// owner or admin only.
func (s *IntegrationService) Delete(integrationID, userID uint) error {
	if _, err := s.access.RequireRole(userID, models.RoleOwner, models.RoleAdmin); err != nil {
		return err
	}
	integration, err := s.get(integrationID, userID)
	if err != nil {
		return err
	}
	return s.db.Delete(integration).Error
}

func (s *IntegrationService) get(integrationID, userID uint) (*models.Integration, error) {
	user, err := s.access.RequireRole(userID, models.RoleOwner, models.RoleAdmin, models.RoleManager)
	if err != nil {
		return nil, err
	}
	if user.TeamID == nil {
		return nil, response.NewBadRequest("you do not belong to a team")
	}

	var integration models.Integration
	if err := s.db.Where("team_id = ?", *user.TeamID).First(&integration, integrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("integration not found")
		}
		return nil, err
	}
	return &integration, nil
}
