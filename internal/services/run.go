package services

import (
	"context"
	"errors"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// RunService manages test runs and their recorded results.
type RunService struct {
	db     *gorm.DB
	access *AccessService
	queue  TaskQueue
}

func NewRunService(db *gorm.DB, access *AccessService, queue TaskQueue) *RunService {
	return &RunService{db: db, access: access, queue: queue}
}

type CreateRunRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	Description   string `json:"description"`
	MilestoneID   *uint  `json:"milestone_id"`
	EnvironmentID *uint  `json:"environment_id"`
}

type RecordResultRequest struct {
	CaseID  uint   `json:"case_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
	Elapsed int    `json:"elapsed" binding:"omitempty,min=0"`
}

// CreateRun opens a new run for the project. The public ID is generated
// server-side and retried on collision.
func (s *RunService) CreateRun(projectID, userID uint, req *CreateRunRequest) (*models.TestRun, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	if req.MilestoneID != nil {
		if err := s.db.Where("project_id = ?", projectID).
			First(&models.Milestone{}, *req.MilestoneID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewBadRequest("milestone does not belong to this project")
			}
			return nil, err
		}
	}
	if req.EnvironmentID != nil {
		if err := s.db.Where("project_id = ?", projectID).
			First(&models.Environment{}, *req.EnvironmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewBadRequest("environment does not belong to this project")
			}
			return nil, err
		}
	}

	run := models.TestRun{
		ProjectID:     projectID,
		MilestoneID:   req.MilestoneID,
		EnvironmentID: req.EnvironmentID,
		Name:          req.Name,
		Description:   req.Description,
		Status:        models.RunOpen,
		CreatedBy:     userID,
	}
	_, err := CreateWithUniqueID("public_id", func(publicID string) error {
		run.ID = 0
		run.PublicID = publicID
		return s.db.Create(&run).Error
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the project's runs, newest first.
func (s *RunService) ListRuns(projectID, userID uint) ([]models.TestRun, error) {
	if _, _, err := s.access.RequireProjectAccess(projectID, userID); err != nil {
		return nil, err
	}

	var runs []models.TestRun
	err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&runs).Error
	return runs, err
}

// GetRun returns one run after the access check.
func (s *RunService) GetRun(runID, userID uint) (*models.TestRun, error) {
	var run models.TestRun
	if err := s.db.First(&run, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("test run not found")
		}
		return nil, err
	}
	if _, _, err := s.access.RequireProjectAccess(run.ProjectID, userID); err != nil {
		return nil, err
	}
	return &run, nil
}

// RecordResult upserts the outcome for one case in an open run. A case has
// at most one result per run; recording again overwrites the previous one.
func (s *RunService) RecordResult(runID, userID uint, req *RecordResultRequest) (*models.TestResult, error) {
	if !models.ValidResultStatus(req.Status) {
		return nil, response.NewBadRequest("unknown result status")
	}

	run, err := s.GetRun(runID, userID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.RunOpen {
		return nil, response.NewBadRequest("run is closed, results can no longer be recorded")
	}

	var testCase models.TestCase
	if err := s.db.Where("project_id = ?", run.ProjectID).First(&testCase, req.CaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewBadRequest("test case does not belong to this project")
		}
		return nil, err
	}

	var result models.TestResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("run_id = ? AND case_id = ?", runID, req.CaseID).First(&result).Error
		switch {
		case err == nil:
			return tx.Model(&result).Updates(map[string]interface{}{
				"status":     req.Status,
				"comment":    req.Comment,
				"elapsed":    req.Elapsed,
				"created_by": userID,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = models.TestResult{
				RunID:     runID,
				CaseID:    req.CaseID,
				Status:    req.Status,
				Comment:   req.Comment,
				Elapsed:   req.Elapsed,
				CreatedBy: userID,
			}
			return tx.Create(&result).Error
		default:
			return err
		}
	})
	if err != nil {
		// Two writers racing on the same (run, case) pair: the other insert
		// won, retry as an update.
		if IsDuplicateKey(err) {
			return s.RecordResult(runID, userID, req)
		}
		return nil, err
	}
	return &result, nil
}

// ListResults returns the run's recorded results.
func (s *RunService) ListResults(runID, userID uint) ([]models.TestResult, error) {
	if _, err := s.GetRun(runID, userID); err != nil {
		return nil, err
	}

	var results []models.TestResult
	err := s.db.Where("run_id = ?", runID).Order("updated_at DESC").Find(&results).Error
	return results, err
}

// CloseRun finalizes the run: result counts are rolled up into the run row
// and team integrations are notified. Closing is idempotent at the API level
// but a second close is rejected so counts are frozen exactly once.
func (s *RunService) CloseRun(ctx context.Context, runID, userID uint) (*models.TestRun, error) {
	run, err := s.GetRun(runID, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var fresh models.TestRun
		if err := tx.First(&fresh, runID).Error; err != nil {
			return err
		}
		if fresh.Status != models.RunOpen {
			return response.NewBadRequest("run is already closed")
		}

		counts := map[string]int{}
		rows := []struct {
			Status string
			N      int
		}{}
		if err := tx.Model(&models.TestResult{}).
			Select("status, COUNT(*) AS n").
			Where("run_id = ?", runID).
			Group("status").Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			counts[row.Status] = row.N
		}

		now := time.Now()
		return tx.Model(&fresh).Updates(map[string]interface{}{
			"status":        models.RunClosed,
			"closed_at":     &now,
			"passed_count":  counts[models.ResultPassed],
			"failed_count":  counts[models.ResultFailed],
			"blocked_count": counts[models.ResultBlocked],
			"skipped_count": counts[models.ResultSkipped],
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, TaskRunClosed, &RunClosedPayload{RunID: runID}); err != nil {
			// Notification is best effort, the close itself stands.
			logger.Errorf("[Run] failed to enqueue run-closed notification for run %d: %v", runID, err)
		}
	}

	if err := s.db.First(run, runID).Error; err != nil {
		return nil, err
	}
	return run, nil
}
