package models

import (
	"fmt"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Error translation stays off: the translated gorm.ErrDuplicatedKey
		// sentinel discards the driver message, and the short-ID create retry
		// needs the constraint name from it to attribute the violation.
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Team{},
		&Subscription{},
		&Invitation{},
		&Project{},
		&TestSuite{},
		&TestCase{},
		&TestRun{},
		&TestResult{},
		&Milestone{},
		&Environment{},
		&Attachment{},
		&Integration{},
		&AuditLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates the bootstrap admin account if no user exists yet.
func SeedDefaultData() error {
	var count int64
	if err := DB.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		Username: "admin",
		Password: string(hash),
		Email:    "admin@example.com",
		Role:     RoleAdmin,
		AuthType: "local",
		IsActive: true,
	}
	return DB.Create(&admin).Error
}
