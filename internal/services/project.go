package services

import (
	"errors"
	"strings"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// ProjectService manages projects and the visibility rules around them.
type ProjectService struct {
	db     *gorm.DB
	access *AccessService
}

func NewProjectService(db *gorm.DB, access *AccessService) *ProjectService {
	return &ProjectService{db: db, access: access}
}

type CreateProjectRequest struct {
	Key         string `json:"key" binding:"required,max=20,alphanum"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	TeamProject bool   `json:"team_project"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	IsArchived  *bool   `json:"is_archived"`
}

// CreateProject creates a project owned by the caller. The public ID is
// generated server-side and retried on collision; the human-chosen key is
// unique per creator, and a conflict on it surfaces to the client as 409
// without burning retry attempts.
func (s *ProjectService) CreateProject(req *CreateProjectRequest, creatorID uint) (*models.Project, error) {
	var user models.User
	if err := s.db.First(&user, creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("authentication required")
		}
		return nil, err
	}

	var teamID *uint
	if req.TeamProject {
		if user.TeamID == nil {
			return nil, response.NewBadRequest("you do not belong to a team")
		}
		teamID = user.TeamID
	}

	project := models.Project{
		Key:         strings.ToUpper(req.Key),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
		TeamID:      teamID,
	}
	_, err := CreateWithUniqueID("public_id", func(publicID string) error {
		project.ID = 0
		project.PublicID = publicID
		return s.db.Create(&project).Error
	})
	if err != nil {
		if IsDuplicateOnColumn(err, "key") || IsDuplicateOnColumn(err, "idx_projects_creator_key") {
			return nil, response.NewConflict("you already have a project with this key")
		}
		return nil, err
	}
	return &project, nil
}

// ListProjects returns every project visible to the user: their own plus
// their team's, if they have one.
func (s *ProjectService) ListProjects(userID uint) ([]models.Project, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("authentication required")
		}
		return nil, err
	}

	query := s.db.Order("created_at DESC")
	if user.TeamID != nil {
		query = query.Where("created_by = ? OR team_id = ?", userID, *user.TeamID)
	} else {
		query = query.Where("created_by = ?", userID)
	}

	var projects []models.Project
	err := query.Find(&projects).Error
	return projects, err
}

// GetProject returns the project after an access check.
func (s *ProjectService) GetProject(projectID, userID uint) (*models.Project, error) {
	project, _, err := s.access.RequireProjectAccess(projectID, userID)
	return project, err
}

// GetProjectByPublicID resolves a short public ID, then applies the same
// access check as GetProject.
func (s *ProjectService) GetProjectByPublicID(publicID string, userID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("public_id = ?", publicID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return s.GetProject(project.ID, userID)
}

// UpdateProject applies partial updates after an access check.
func (s *ProjectService) UpdateProject(projectID, userID uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, _, err := s.access.RequireProjectAccess(projectID, userID)
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
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}
	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// ShareWithTeam attaches the project to the caller's current team. Only the
// creator may change sharing.
func (s *ProjectService) ShareWithTeam(projectID, userID uint) (*models.Project, error) {
	project, user, err := s.access.RequireProjectAccess(projectID, userID)
	if err != nil {
		return nil, err
	}
	if project.CreatedBy != userID {
		return nil, response.NewForbidden("only the creator can change project sharing")
	}
	if user.TeamID == nil {
		return nil, response.NewBadRequest("you do not belong to a team")
	}

	if err := s.db.Model(project).Update("team_id", *user.TeamID).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// UnshareFromTeam detaches the project from its team, making it private to
// the creator again.
func (s *ProjectService) UnshareFromTeam(projectID, userID uint) (*models.Project, error) {
	project, _, err := s.access.RequireProjectAccess(projectID, userID)
	if err != nil {
		return nil, err
	}
	if project.CreatedBy != userID {
		return nil, response.NewForbidden("only the creator can change project sharing")
	}

	if err := s.db.Model(project).Update("team_id", nil).Error; err != nil {
		return nil, err
	}
	project.TeamID = nil
	return project, nil
}

// DeleteProject soft-deletes the project. Only the creator may delete.
func (s *ProjectService) DeleteProject(projectID, userID uint) error {
	project, _, err := s.access.RequireProjectAccess(projectID, userID)
	if err != nil {
		return err
	}
	if project.CreatedBy != userID {
		return response.NewForbidden("only the creator can delete a project")
	}
	return s.db.Delete(project).Error
}
