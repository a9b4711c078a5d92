package models

import (
	"time"

	"gorm.io/gorm"
)

// Test case priority and type constants.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// TestSuite groups test cases within a project.
type TestSuite struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Position    int            `gorm:"default:0" json:"position"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestSuite) TableName() string { return "test_suites" }

// TestCase is a single test definition inside a suite.
type TestCase struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SuiteID   uint           `gorm:"index;not null" json:"suite_id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Title     string         `gorm:"size:500;not null" json:"title"`
	Priority  string         `gorm:"size:20;default:medium" json:"priority"`
	Type      string         `gorm:"size:50;default:functional" json:"type"` // functional, regression, smoke, security, performance
	Steps     string         `gorm:"type:text" json:"steps"`
	Expected  string         `gorm:"type:text" json:"expected"`
	Position  int            `gorm:"default:0" json:"position"`
	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestCase) TableName() string { return "test_cases" }
