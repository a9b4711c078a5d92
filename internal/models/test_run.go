package models

import (
	"time"

	"gorm.io/gorm"
)

// Test run and result status constants.
const (
	RunOpen   = "open"
	RunClosed = "closed"

	ResultUntested = "untested"
	ResultPassed   = "passed"
	ResultFailed   = "failed"
	ResultBlocked  = "blocked"
	ResultSkipped  = "skipped"
)

// ValidResultStatus reports whether status is a known test result status.
func ValidResultStatus(status string) bool {
	switch status {
	case ResultUntested, ResultPassed, ResultFailed, ResultBlocked, ResultSkipped:
		return true
	}
	return false
}

// TestRun is an execution of a set of test cases against a project,
// optionally pinned to a milestone and environment.
type TestRun struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PublicID      string         `gorm:"uniqueIndex:idx_test_runs_public_id;size:16;not null" json:"public_id"`
	ProjectID     uint           `gorm:"index;not null" json:"project_id"`
	MilestoneID   *uint          `gorm:"index" json:"milestone_id"`
	EnvironmentID *uint          `gorm:"index" json:"environment_id"`
	Name          string         `gorm:"size:200;not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Status        string         `gorm:"size:20;default:open;index" json:"status"`
	CreatedBy     uint           `json:"created_by"`
	ClosedAt      *time.Time     `json:"closed_at"`
	PassedCount   int            `gorm:"default:0" json:"passed_count"`
	FailedCount   int            `gorm:"default:0" json:"failed_count"`
	BlockedCount  int            `gorm:"default:0" json:"blocked_count"`
	SkippedCount  int            `gorm:"default:0" json:"skipped_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestRun) TableName() string { return "test_runs" }

// TestResult is the latest recorded outcome for one case within a run.
type TestResult struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     uint      `gorm:"uniqueIndex:idx_results_run_case;not null" json:"run_id"`
	CaseID    uint      `gorm:"uniqueIndex:idx_results_run_case;not null" json:"case_id"`
	Status    string    `gorm:"size:20;default:untested" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Elapsed   int       `gorm:"default:0" json:"elapsed"` // seconds
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TestResult) TableName() string { return "test_results" }
