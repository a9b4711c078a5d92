package services

import (
	"encoding/json"
	"errors"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// EnvironmentService manages the deployment targets runs execute against.
type EnvironmentService struct {
	db     *gorm.DB
	access *AccessService
}

func NewEnvironmentService(db *gorm.DB, access *AccessService) *EnvironmentService {
	return &EnvironmentService{db: db, access: access}
}

type CreateEnvironmentRequest struct {
	Name      string            `json:"name" binding:"required,max=100"`
	URL       string            `json:"url" binding:"omitempty,url,max=500"`
	Variables map[string]string `json:"variables"`
}

func (s *EnvironmentService) Create(projectID, userID uint, req *CreateEnvironmentRequest) (*models.Environment, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	env := models.Environment{
		ProjectID: projectID,
		Name:      req.Name,
		URL:       req.URL,
	}
	if len(req.Variables) > 0 {
		data, err := json.Marshal(req.Variables)
		if err != nil {
			return nil, response.NewBadRequest("invalid variables")
		}
		env.Variables = string(data)
	}

	if err := s.db.Create(&env).Error; err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *EnvironmentService) List(projectID, userID uint) ([]models.Environment, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	var envs []models.Environment
	err := s.db.Where("project_id = ?", projectID).Order("name ASC").Find(&envs).Error
	return envs, err
}

func (s *EnvironmentService) Delete(environmentID, userID uint) error {
	var env models.Environment
	if err := s.db.First(&env, environmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("environment not found")
		}
		return err
	}
	if _, _, err := s.access.RequireProjectAccess(env.ProjectID, userID); err != nil {
		return err
	}
	return s.db.Delete(&env).Error
}
