package main

import (
	"os"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/internal/utils"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(os.Getenv("LOG_LEVEL"))
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warnf("Failed to seed default data: %v", err)
	}

	db := models.GetDB()
	services.InitAuditLogger(db)

	// Shared infrastructure: Redis when available, in-process fallbacks
	// otherwise. The service keeps working either way.
	counterStore := services.NewCounterStore(&cfg.Redis)
	rateLimiter := services.NewRateLimiter(counterStore)
	statusCache := services.NewTeamStatusCache(&cfg.Redis)
	taskQueue := services.InitTaskQueue(cfg)

	// Services
	accessService := services.NewAccessService(db)
	seatService := services.NewSeatService(db, statusCache)
	teamService := services.NewTeamService(db, seatService)
	billingService := services.NewBillingService(db, seatService)
	projectService := services.NewProjectService(db, accessService)
	suiteService := services.NewSuiteService(db, accessService)
	runService := services.NewRunService(db, accessService, taskQueue)
	milestoneService := services.NewMilestoneService(db, accessService)
	environmentService := services.NewEnvironmentService(db, accessService)
	attachmentService := services.NewAttachmentService(db, accessService, os.Getenv("UPLOAD_DIR"))
	integrationService := services.NewIntegrationService(db, accessService)
	authService := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP)
	auditService := services.NewAuditService(db)
	notificationService := services.NewNotificationService(db)

	// Run-closed notifications: worker consumes the Redis queue, or the sync
	// queue dispatches in-process.
	services.RegisterSyncHandlers(taskQueue, notificationService)
	if worker := services.NewWorker(&cfg.Redis, notificationService); worker != nil {
		if err := worker.Start(); err != nil {
			logger.Errorf("Failed to start worker: %v", err)
		}
		defer worker.Stop()
	}
	defer taskQueue.Close()

	// Hourly housekeeping: invitation expiry and seat reconciliation.
	sweeper := services.NewSweeperService(db, teamService, seatService)
	sweeper.StartScheduler()
	defer sweeper.StopScheduler()

	gin.SetMode(cfg.Server.Mode)

	deps := &routerDeps{
		db:                 db,
		cfg:                cfg,
		rateLimiter:        rateLimiter,
		accessService:      accessService,
		seatService:        seatService,
		teamService:        teamService,
		billingService:     billingService,
		projectService:     projectService,
		suiteService:       suiteService,
		runService:         runService,
		milestoneService:   milestoneService,
		environmentService: environmentService,
		attachmentService:  attachmentService,
		integrationService: integrationService,
		authService:        authService,
		auditService:       auditService,
	}
	r := setupRouter(deps)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
