package services

import (
	"errors"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// MilestoneService manages project milestones.
type MilestoneService struct {
	db     *gorm.DB
	access *AccessService
}

func NewMilestoneService(db *gorm.DB, access *AccessService) *MilestoneService {
	return &MilestoneService{db: db, access: access}
}

type CreateMilestoneRequest struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateMilestoneRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=200"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted *bool      `json:"is_completed"`
}

func (s *MilestoneService) Create(projectID, userID uint, req *CreateMilestoneRequest) (*models.Milestone, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	milestone := models.Milestone{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if err := s.db.Create(&milestone).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (s *MilestoneService) List(projectID, userID uint) ([]models.Milestone, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	var milestones []models.Milestone
	err := s.db.Where("project_id = ?", projectID).
		Order("due_date ASC, id ASC").Find(&milestones).Error
	return milestones, err
}

func (s *MilestoneService) Update(milestoneID, userID uint, req *UpdateMilestoneRequest) (*models.Milestone, error) {
	milestone, err := s.get(milestoneID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}
	if req.IsCompleted != nil {
		updates["is_completed"] = *req.IsCompleted
	}
	if len(updates) == 0 {
		return milestone, nil
	}

	if err := s.db.Model(milestone).Updates(updates).Error; err != nil {
		return nil, err
	}
	return milestone, nil
}

func (s *MilestoneService) Delete(milestoneID, userID uint) error {
	milestone, err := s.get(milestoneID, userID)
	if err != nil {
		return err
	}
	return s.db.Delete(milestone).Error
}

func (s *MilestoneService) get(milestoneID, userID uint) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := s.db.First(&milestone, milestoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("milestone not found")
		}
		return nil, err
	}
	if _, _, err := s.access.RequireProjectAccess(milestone.ProjectID, userID); err != nil {
		return nil, err
	}
	return &milestone, nil
}
