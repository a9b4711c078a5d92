package services

import (
	"fmt"
	"testing"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database migrated with the
// full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	// Error translation is off, matching the production configuration:
	// duplicate classification works on raw driver messages.
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Subscription{},
		&models.Invitation{},
		&models.Project{},
		&models.TestSuite{},
		&models.TestCase{},
		&models.TestRun{},
		&models.TestResult{},
		&models.Milestone{},
		&models.Environment{},
		&models.Attachment{},
		&models.Integration{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role string, teamID *uint) *models.User {
	t.Helper()
	u := &models.User{Username: username, Role: role, TeamID: teamID, IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func createTeam(t *testing.T, db *gorm.DB, name string, seats int) *models.Team {
	t.Helper()
	team := &models.Team{Name: name}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	sub := &models.Subscription{TeamID: team.ID, Seats: seats, Status: models.SubscriptionActive}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return team
}

func uintPtr(v uint) *uint { return &v }
