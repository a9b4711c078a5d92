package services

import (
	"errors"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// SuiteService manages test suites and the cases inside them. Every
// operation is guarded by the project access check.
type SuiteService struct {
	db     *gorm.DB
	access *AccessService
}

func NewSuiteService(db *gorm.DB, access *AccessService) *SuiteService {
	return &SuiteService{db: db, access: access}
}

type CreateSuiteRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type CreateCaseRequest struct {
	Title    string `json:"title" binding:"required,max=500"`
	Priority string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Type     string `json:"type" binding:"omitempty,max=50"`
	Steps    string `json:"steps"`
	Expected string `json:"expected"`
	Position int    `json:"position"`
}

type UpdateCaseRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=500"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Steps    *string `json:"steps"`
	Expected *string `json:"expected"`
	Position *int    `json:"position"`
}

// CreateSuite adds a suite to the project.
func (s *SuiteService) CreateSuite(projectID, userID uint, req *CreateSuiteRequest) (*models.TestSuite, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	suite := models.TestSuite{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Position:    req.Position,
	}
	if err := s.db.Create(&suite).Error; err != nil {
		return nil, err
	}
	return &suite, nil
}

// ListSuites returns the project's suites ordered by position.
func (s *SuiteService) ListSuites(projectID, userID uint) ([]models.TestSuite, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	var suites []models.TestSuite
	err := s.db.Where("project_id = ?", projectID).
		Order("position ASC, id ASC").Find(&suites).Error
	return suites, err
}

// DeleteSuite soft-deletes the suite and its cases.
func (s *SuiteService) DeleteSuite(suiteID, userID uint) error {
	suite, err := s.getSuite(suiteID, userID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("suite_id = ?", suiteID).Delete(&models.TestCase{}).Error; err != nil {
			return err
		}
		return tx.Delete(suite).Error
	})
}

// CreateCase adds a case to the suite.
func (s *SuiteService) CreateCase(suiteID, userID uint, req *CreateCaseRequest) (*models.TestCase, error) {
	suite, err := s.getSuite(suiteID, userID)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	caseType := req.Type
	if caseType == "" {
		caseType = "functional"
	}

	testCase := models.TestCase{
		SuiteID:   suiteID,
		ProjectID: suite.ProjectID,
		Title:     req.Title,
		Priority:  priority,
		Type:      caseType,
		Steps:     req.Steps,
		Expected:  req.Expected,
		Position:  req.Position,
		CreatedBy: userID,
	}
	if err := s.db.Create(&testCase).Error; err != nil {
		return nil, err
	}
	return &testCase, nil
}

// ListCases returns the suite's cases ordered by position.
func (s *SuiteService) ListCases(suiteID, userID uint) ([]models.TestCase, error) {
	if _, err := s.getSuite(suiteID, userID); err != nil {
		return nil, err
	}

	var cases []models.TestCase
	err := s.db.Where("suite_id = ?", suiteID).
		Order("position ASC, id ASC").Find(&cases).Error
	return cases, err
}

// UpdateCase applies partial updates to a case.
func (s *SuiteService) UpdateCase(caseID, userID uint, req *UpdateCaseRequest) (*models.TestCase, error) {
	var testCase models.TestCase
	if err := s.db.First(&testCase, caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("test case not found")
		}
		return nil, err
	}
	if _, _, err := s.access.RequireProjectAccess(testCase.ProjectID, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Steps != nil {
		updates["steps"] = *req.Steps
	}
	if req.Expected != nil {
		updates["expected"] = *req.Expected
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if len(updates) == 0 {
		return &testCase, nil
	}

	if err := s.db.Model(&testCase).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &testCase, nil
}

// DeleteCase soft-deletes a case.
func (s *SuiteService) DeleteCase(caseID, userID uint) error {
	var testCase models.TestCase
	if err := s.db.First(&testCase, caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("test case not found")
		}
		return err
	}
	if _, _, err := s.access.RequireProjectAccess(testCase.ProjectID, userID); err != nil {
		return err
	}
	return s.db.Delete(&testCase).Error
}

func (s *SuiteService) getSuite(suiteID, userID uint) (*models.TestSuite, error) {
	var suite models.TestSuite
	if err := s.db.First(&suite, suiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("test suite not found")
		}
		return nil, err
	}
	if _, _, err := s.access.RequireProjectAccess(suite.ProjectID, userID); err != nil {
		return nil, err
	}
	return &suite, nil
}
