package services

import (
	"errors"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// HasProjectAccess decides whether user may act on project. The creator
// always has access, independent of any team membership. Anyone else needs
// both sides to reference the same non-nil team. Nil arguments mean no
// access; the predicate never errors and has no side effects.
func HasProjectAccess(project *models.Project, user *models.User) bool {
	if project == nil || user == nil {
		return false
	}
	if project.CreatedBy == user.ID {
		return true
	}
	if project.TeamID == nil || user.TeamID == nil {
		return false
	}
	return *project.TeamID == *user.TeamID
}

// AccessService enforces role and project-access preconditions.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// RequireRole loads the user's current role from the store (never from a
// cached token) and asserts it is in the allowed set. Returns Unauthorized
// when there is no valid principal and Forbidden when the role is not
// allowed. It never mutates state.
func (s *AccessService) RequireRole(userID uint, allowed ...string) (*models.User, error) {
	if userID == 0 {
		return nil, response.NewUnauthorized("authentication required")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("authentication required")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewUnauthorized("account is disabled")
	}

	for _, role := range allowed {
		if user.Role == role {
			return &user, nil
		}
	}
	return nil, response.NewForbidden("insufficient role")
}

// RequireProjectAccess loads the project and the user and applies the access
// predicate. Returns NotFound when the project does not exist and Forbidden
// when the predicate denies.
func (s *AccessService) RequireProjectAccess(projectID, userID uint) (*models.Project, *models.User, error) {
	if userID == 0 {
		return nil, nil, response.NewUnauthorized("authentication required")
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("project not found")
		}
		return nil, nil, err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewUnauthorized("authentication required")
		}
		return nil, nil, err
	}

	if !HasProjectAccess(&project, &user) {
		return nil, nil, response.NewForbidden("no access to this project")
	}
	return &project, &user, nil
}
